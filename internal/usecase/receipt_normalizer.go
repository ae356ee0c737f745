package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pantrypal/backend/internal/domain"
)

// Compiled patterns for receipt line cleanup
var (
	// Size/weight tokens such as "12 oz", "1.5 liter", "2 lb", "500g"
	receiptSizePattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(fl\s*)?(oz|ounces?|lbs?|pounds?|ml|liters?|l|gallons?|gal|quarts?|qt|pints?|kg|grams?|g)\b`)

	// Pack/count tokens such as "12 pack", "pack of 6", "6ct"
	receiptPackPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b`)

	// Store codes and prices printed alongside the item ("4011", "$3.99", "@ 2.49")
	receiptCodePattern = regexp.MustCompile(`\$\s*\d+(\.\d+)?|@\s*\d+(\.\d+)?|\b\d{4,}\b`)

	orphanPunctuationPattern = regexp.MustCompile(`\s+[,\-;:/]+\s+|[,\-;:/]+\s*$|^\s*[,\-;:/]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// receiptNoiseWords are marketing and packaging words OCR keeps on item lines
var receiptNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "choice": true, "quality": true, "great": true,
	"special": true, "organic": true, "natural": true, "fresh": true,

	// Size descriptors
	"size": true, "mini": true, "jumbo": true, "giant": true,

	// Packaging terms
	"package": true, "pkg": true, "box": true, "bag": true, "bottle": true,
	"btl": true, "can": true, "jar": true, "tub": true, "carton": true, "ctn": true,

	// Receipt bookkeeping
	"ea": true, "each": true, "qty": true, "sale": true, "item": true,
}

// ReceiptNormalizer cleans candidate pantry items extracted from a receipt
type ReceiptNormalizer struct {
	log                *zap.Logger
	enableDebugLogging bool
}

// NewReceiptNormalizer creates a new receipt normalizer
func NewReceiptNormalizer(log *zap.Logger, enableDebugLogging bool) *ReceiptNormalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReceiptNormalizer{
		log:                log,
		enableDebugLogging: enableDebugLogging,
	}
}

// CleanName strips sizes, pack counts, prices and noise words from an OCR
// item name and title-cases what remains. An empty result means the line
// held nothing that names a food.
func (n *ReceiptNormalizer) CleanName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	cleaned := receiptSizePattern.ReplaceAllString(raw, " ")
	cleaned = receiptPackPattern.ReplaceAllString(cleaned, " ")
	cleaned = receiptCodePattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = orphanPunctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))
	cleaned = titleCase(cleaned)

	if n.enableDebugLogging {
		n.log.Debug("receipt line cleaned", zap.String("input", raw), zap.String("output", cleaned))
	}
	return cleaned
}

// Normalize cleans every candidate, drops lines with no usable name, merges
// duplicates by name (summing quantities) and clears expiry dates.
func (n *ReceiptNormalizer) Normalize(candidates []domain.PantryItem) []domain.PantryItem {
	out := make([]domain.PantryItem, 0, len(candidates))
	index := make(map[string]int)

	for _, c := range candidates {
		name := n.CleanName(c.Name)
		if name == "" {
			n.log.Debug("dropping receipt line without a food name", zap.String("raw", c.Name))
			continue
		}

		quantity := c.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		key := strings.ToLower(name)
		if i, ok := index[key]; ok {
			out[i].Quantity += quantity
			continue
		}

		index[key] = len(out)
		out = append(out, domain.PantryItem{
			Name:     name,
			Quantity: quantity,
			Unit:     strings.TrimSpace(c.Unit),
			Category: domain.ParseCategory(string(c.Category)),
		})
	}
	return out
}

// removeNoiseWords drops marketing and packaging words, keeping word order
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := words[:0]
	for _, word := range words {
		if !receiptNoiseWords[strings.Trim(word, ",.!?;:-'\"")] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
