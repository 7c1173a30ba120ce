package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// authSecretLabel разделяет домены verifier и секрета identity provider
const authSecretLabel = "zkvault/identity/v1"

// HashVerifier кодирует verifier для хранения в профиле (hex)
func HashVerifier(verifier []byte) string {
	return hex.EncodeToString(verifier)
}

// VerifyVerifier сравнивает verifier с сохраненным значением за постоянное время
func VerifyVerifier(verifier []byte, stored string) bool {
	if len(verifier) == 0 || stored == "" {
		return false
	}
	storedBytes, err := hex.DecodeString(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(verifier, storedBytes) == 1
}

// authSecret выводит секрет для identity provider из verification key.
// Из сохраненного verifier его вычислить нельзя, поэтому доступ к таблице
// профилей не дает права входа.
func authSecret(verificationKey []byte) string {
	mac := hmac.New(sha256.New, verificationKey)
	mac.Write([]byte(authSecretLabel))
	return hex.EncodeToString(mac.Sum(nil))
}
