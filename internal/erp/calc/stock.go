package calc

import (
	"fmt"
	"math"
	"strings"
)

// Material availability
const (
	AvailabilityAvailable   = "available"
	AvailabilityLow         = "low"
	AvailabilityUnavailable = "unavailable"
)

// Stock status labels shared by products and raw materials
const (
	StockInStock    = "in-stock"
	StockLowStock   = "low-stock"
	StockOutOfStock = "out-of-stock"
)

const (
	MaterialTypeRaw     = "raw_material"
	MaterialTypeProduct = "product"
)

// quantities closer than this are treated as equal
const epsilon = 1e-9

// RequiredQuantity = quantity per SQM x total SQM.
func RequiredQuantity(quantityPerSQM, totalSQM float64) float64 {
	if !IsUsable(quantityPerSQM) || !IsUsable(totalSQM) {
		return 0
	}
	return quantityPerSQM * totalSQM
}

// TotalSQM is the area of a whole batch.
func TotalSQM(plannedQuantity int, sqmPerUnit float64) float64 {
	if plannedQuantity <= 0 || !IsUsable(sqmPerUnit) {
		return 0
	}
	return float64(plannedQuantity) * sqmPerUnit
}

// Availability classifies a material against its requirement and returns
// the shortage.
func Availability(required, available float64) (status string, shortage float64) {
	if available < 0 {
		available = 0
	}
	switch {
	case required > epsilon && available <= epsilon:
		status = AvailabilityUnavailable
	case available > epsilon && available < required-epsilon:
		status = AvailabilityLow
	default:
		status = AvailabilityAvailable
	}
	shortage = math.Max(0, required-available)
	if shortage < epsilon {
		shortage = 0
	}
	return status, shortage
}

// StockStatus derives the label for a stock level. threshold is the reorder
// point (or minimum level) below or at which stock counts as low.
func StockStatus(quantity, threshold float64) string {
	switch {
	case quantity <= 0:
		return StockOutOfStock
	case threshold > 0 && quantity <= threshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// WholeUnits rounds a fractional requirement of a product-type material up
// to the number of physical units needed.
func WholeUnits(required float64) float64 {
	if required <= 0 {
		return 0
	}
	return math.Ceil(required - epsilon)
}

// MaterialRequirement is one row of a batch's material plan.
type MaterialRequirement struct {
	MaterialID           string   `json:"material_id"`
	MaterialName         string   `json:"material_name"`
	MaterialType         string   `json:"material_type"`
	QuantityPerSQM       float64  `json:"quantity_per_sqm"`
	Unit                 string   `json:"unit"`
	CostPerUnit          float64  `json:"cost_per_unit"`
	RequiredQuantity     float64  `json:"required_quantity"`
	AvailableQuantity    float64  `json:"available_quantity"`
	Status               string   `json:"status"`
	Shortage             float64  `json:"shortage"`
	IndividualProductIDs []string `json:"individual_product_ids,omitempty"`
}

// Evaluate fills RequiredQuantity, Status and Shortage from the per-SQM
// quantity, the batch area and AvailableQuantity.
func (m *MaterialRequirement) Evaluate(totalSQM float64) {
	m.RequiredQuantity = RequiredQuantity(m.QuantityPerSQM, totalSQM)
	m.Status, m.Shortage = Availability(m.RequiredQuantity, m.AvailableQuantity)
}

func (m MaterialRequirement) IsProduct() bool {
	return m.MaterialType == MaterialTypeProduct
}

// MoveToConsumed moves the requirement rows named by ids into consumed.
// A material already in consumed is never added twice; moved rows leave
// requirements either way.
func MoveToConsumed(requirements, consumed []MaterialRequirement, ids []string) (remaining, updated []MaterialRequirement, moved []MaterialRequirement) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	inConsumed := make(map[string]bool, len(consumed))
	for _, c := range consumed {
		inConsumed[c.MaterialID] = true
	}

	updated = append(updated, consumed...)
	for _, r := range requirements {
		if !want[r.MaterialID] {
			remaining = append(remaining, r)
			continue
		}
		if inConsumed[r.MaterialID] {
			continue
		}
		inConsumed[r.MaterialID] = true
		updated = append(updated, r)
		moved = append(moved, r)
	}
	return remaining, updated, moved
}

// GateIssue explains why one material blocks the machine stage.
type GateIssue struct {
	MaterialID   string  `json:"material_id"`
	MaterialName string  `json:"material_name"`
	Reason       string  `json:"reason"`
	Shortage     float64 `json:"shortage,omitempty"`
}

func (g GateIssue) String() string {
	return fmt.Sprintf("%s: %s", g.MaterialName, g.Reason)
}

// CheckStartGate lists every consumed material that prevents production
// from starting. An empty result means the machine stage may begin.
func CheckStartGate(consumed []MaterialRequirement) []GateIssue {
	var issues []GateIssue
	for _, m := range consumed {
		name := m.MaterialName
		if name == "" {
			name = m.MaterialID
		}
		switch m.Status {
		case AvailabilityLow:
			issues = append(issues, GateIssue{
				MaterialID:   m.MaterialID,
				MaterialName: name,
				Reason:       fmt.Sprintf("low stock, short by %s %s", FormatQuantity(m.Shortage), m.Unit),
				Shortage:     m.Shortage,
			})
			continue
		case AvailabilityUnavailable:
			issues = append(issues, GateIssue{
				MaterialID:   m.MaterialID,
				MaterialName: name,
				Reason:       "out of stock",
				Shortage:     m.Shortage,
			})
			continue
		}
		if m.IsProduct() && len(m.IndividualProductIDs) == 0 {
			issues = append(issues, GateIssue{
				MaterialID:   m.MaterialID,
				MaterialName: name,
				Reason:       "no individual products selected",
			})
		}
	}
	return issues
}

// FormatQuantity prints a quantity with at most 3 decimals and no trailing zeros.
func FormatQuantity(v float64) string {
	s := fmt.Sprintf("%.3f", RoundTo(v, 3))
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
