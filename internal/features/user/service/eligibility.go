package service

import "accounts-backend/internal/features/user/models"

// RequiredDocuments lists the document names a user must have uploaded
// before being upgraded to premium. Matching is exact and case-sensitive.
var RequiredDocuments = []string{
	"Identificación",
	"Comprobante de domicilio",
	"Comprobante de estado de cuenta",
}

// EligibleForPremium reports whether the ledger contains every required
// document name. Order and duplicates are irrelevant; unrecognized names
// never count.
func EligibleForPremium(docs []models.Document) bool {
	return len(MissingDocuments(docs)) == 0
}

// MissingDocuments returns the required names absent from the ledger, in
// the required order.
func MissingDocuments(docs []models.Document) []string {
	var missing []string
	for _, required := range RequiredDocuments {
		found := false
		for _, doc := range docs {
			if doc.Name == required {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}
	return missing
}
