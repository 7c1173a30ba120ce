package generator

import (
	"unicode"
	"unicode/utf8"
)

// EstimateStrength возвращает эвристическую оценку пароля от 0 до 100.
//
// Оценка только для подсказки в интерфейсе, это не проверка безопасности:
// она не знает о словарях, утечках и повторяющихся шаблонах.
//
//   - +10 за каждый достигнутый порог длины: 8, 12, 16, 20
//   - +10 за строчные, +10 за заглавные, +10 за цифры, +20 за символы
//   - +10, если есть все четыре класса и длина не меньше 16
func EstimateStrength(password string) int {
	length := utf8.RuneCountInString(password)
	score := 0

	for _, threshold := range []int{8, 12, 16, 20} {
		if length >= threshold {
			score += 10
		}
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}

	if lower {
		score += 10
	}
	if upper {
		score += 10
	}
	if digit {
		score += 10
	}
	if symbol {
		score += 20
	}
	if lower && upper && digit && symbol && length >= 16 {
		score += 10
	}

	return min(score, 100)
}

// StrengthLabel переводит оценку в короткую метку для CLI
func StrengthLabel(score int) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "weak"
	}
}
