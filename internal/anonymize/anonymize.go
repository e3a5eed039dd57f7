// Package anonymize replaces client and unit identities with salted tokens.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TokenLength is the number of hex characters kept from the digest.
const TokenLength = 24

// Item type codes used in the receivables output.
const (
	ItemParking    = "EST"
	ItemStorage    = "DEP"
	ItemDepartment = "DEPTO"
)

// StableHash returns the first 24 hex characters of sha256("<salt>|<value>").
func StableHash(value, salt string) string {
	sum := sha256.Sum256([]byte(salt + "|" + value))
	return hex.EncodeToString(sum[:])[:TokenLength]
}

// Client prefers the identity document, which is more unique than a name. A nil
// or blank document falls back to "<first names> <last names>".
func Client(firstNames, lastNames string, document *string, salt string) string {
	if document != nil {
		if doc := strings.TrimSpace(*document); doc != "" {
			return StableHash(doc, salt)
		}
	}

	return StableHash(strings.TrimSpace(firstNames+" "+lastNames), salt)
}

func Unit(proformaCode, salt string) string {
	return StableHash(proformaCode, salt)
}

// ItemType maps a free-text item type to EST, DEP or DEPTO, ignoring case and
// surrounding whitespace. Input is NFC-normalized so a decomposed "ó" still
// matches. Anything unrecognized is a department.
func ItemType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(norm.NFC.String(raw))) {
	case "estacionamiento", "parking":
		return ItemParking
	case "deposito", "depósito", "storage":
		return ItemStorage
	default:
		return ItemDepartment
	}
}
