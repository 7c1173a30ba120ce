package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/zkvault/internal/client/export"
	"github.com/iudanet/zkvault/internal/client/ui"
)

func (c *Cli) exportCmd() *cobra.Command {
	var (
		dir   string
		s3cfg export.S3Config
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Back up the encrypted vault to a file or S3",
		Long: `Writes a backup with item ciphertext, categories and the public KDF
parameters. The backup can only be decrypted with the master password;
the vault does not need to be unlocked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.requireAuthenticated(); err != nil {
				return err
			}

			bundle, err := export.Build(ctx, c.store, c.session.Identity().UserID, time.Now().UTC())
			if err != nil {
				return err
			}
			data, err := bundle.Marshal()
			if err != nil {
				return err
			}

			var sink export.Sink = export.FileSink{Dir: dir}
			if s3cfg.Bucket != "" {
				if s3cfg.AccessKey == "" {
					s3cfg.AccessKey = c.getenv("AWS_ACCESS_KEY_ID")
					s3cfg.SecretKey = c.getenv("AWS_SECRET_ACCESS_KEY")
				}
				if s3cfg.Region == "" {
					s3cfg.Region = c.getenv("AWS_REGION")
				}
				client, err := export.NewS3Client(ctx, s3cfg)
				if err != nil {
					return err
				}
				sink = export.NewS3Sink(client, s3cfg.Bucket, s3cfg.Prefix)
			}

			location, err := sink.Put(ctx, bundle.FileName(), data)
			if err != nil {
				return err
			}
			c.io.Printf("%s Exported %d item(s) to %s\n", ui.Success.Sprint("✓"), len(bundle.Items), ui.Highlight.Sprint(location))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&dir, "out", "o", ".", "directory for the backup file")
	fs.StringVar(&s3cfg.Bucket, "s3-bucket", "", "upload to this S3 bucket instead of a file")
	fs.StringVar(&s3cfg.Prefix, "s3-prefix", "", "object key prefix")
	fs.StringVar(&s3cfg.Region, "s3-region", "", "S3 region (env AWS_REGION)")
	fs.StringVar(&s3cfg.Endpoint, "s3-endpoint", "", "custom S3 endpoint, e.g. MinIO")
	return cmd
}
