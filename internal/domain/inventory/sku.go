package inventory

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSKULength = 48

	// batchEntropyLength hex characters of a random UUID, i.e. 48 random bits
	batchEntropyLength = 12
)

// NormalizeProductName is the key SKUs are registered under
func NormalizeProductName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// MintSKU derives the base SKU for a product name: upper case, alphanumerics only,
// words joined by dashes. "Sourdough Bread (800g)" becomes "SOURDOUGH-BREAD-800G".
// Accents are folded ("Crème Brûlée" becomes "CREME-BRULEE"); letters with no ASCII
// base form are dropped.
func MintSKU(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToUpper(foldAccents(NormalizeProductName(name))) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r > unicode.MaxASCII {
				continue
			}
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	sku := b.String()
	if len(sku) > maxSKULength {
		sku = strings.TrimRight(sku[:maxSKULength], "-")
	}
	if sku == "" {
		sku = "PRODUCT"
	}
	return sku
}

// foldAccents strips combining marks after canonical decomposition
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// SKUCandidate returns the attempt-th candidate for a base SKU: the base itself first,
// then BASE-2, BASE-3 and so on when the base is already owned by another name.
func SKUCandidate(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

// NewBatchNumber mints a globally unique batch number such as BATCH-20261017-3F2A9C1B07D4
func NewBatchNumber(prefix string, at time.Time) string {
	if prefix == "" {
		prefix = "BATCH"
	}
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:batchEntropyLength]
	return fmt.Sprintf("%s-%s-%s", prefix, at.UTC().Format("20060102"), entropy)
}
