package validators

import (
	"strings"

	"github.com/lebelle-app/agenda-api/internal/search"
)

// FormatDocument applies the CPF or CNPJ input mask progressively:
// 000.000.000-00 for up to 11 digits, 00.000.000/0000-00 beyond that.
func FormatDocument(v string) string {
	digits := search.OnlyDigits(v)
	if len(digits) <= 11 {
		return formatCPF(digits)
	}
	if len(digits) > 14 {
		digits = digits[:14]
	}
	return formatCNPJ(digits)
}

// IsValidDocument accepts an 11-digit CPF with valid check digits or a
// 14-digit CNPJ. CNPJ check digits are not verified; only all-repeated
// sequences are rejected.
func IsValidDocument(v string) bool {
	digits := search.OnlyDigits(v)
	switch len(digits) {
	case 11:
		return validCPF(digits)
	case 14:
		return validCNPJ(digits)
	default:
		return false
	}
}

// SalonID derives the tenant identifier from a tax document: the bare
// digit sequence, used as the salon document id and the scoping key on
// every client and schedule record.
func SalonID(document string) string {
	return search.OnlyDigits(document)
}

func formatCPF(d string) string {
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

func formatCNPJ(d string) string {
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 2, 5:
			b.WriteByte('.')
		case 8:
			b.WriteByte('/')
		case 12:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

func allRepeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

func validCPF(cpf string) bool {
	if allRepeated(cpf) {
		return false
	}

	sum := 0
	for i := 1; i <= 9; i++ {
		sum += int(cpf[i-1]-'0') * (11 - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		rem = 0
	}
	if rem != int(cpf[9]-'0') {
		return false
	}

	sum = 0
	for i := 1; i <= 10; i++ {
		sum += int(cpf[i-1]-'0') * (12 - i)
	}
	rem = (sum * 10) % 11
	if rem == 10 {
		rem = 0
	}
	return rem == int(cpf[10]-'0')
}

func validCNPJ(cnpj string) bool {
	return !allRepeated(cnpj)
}
