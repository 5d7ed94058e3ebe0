package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// PurchaseGeneratorConfig configures the synthetic purchase-history generator.
type PurchaseGeneratorConfig struct {
	CustomerCount           int       `json:"customer_count"`
	AvgPurchasesPerCustomer float64   `json:"avg_purchases_per_customer"`
	MeanGapDays             float64   `json:"mean_gap_days"`
	MeanAmount              float64   `json:"mean_amount"`
	StartDate               time.Time `json:"start_date"`
	Seed                    int64     `json:"seed"`
}

// DefaultPurchaseConfig returns sensible defaults for purchase data generation.
func DefaultPurchaseConfig() PurchaseGeneratorConfig {
	return PurchaseGeneratorConfig{
		CustomerCount:           200,
		AvgPurchasesPerCustomer: 4.0,
		MeanGapDays:             21.0,
		MeanAmount:              40.0,
		StartDate:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:                    42,
	}
}

// PurchaseGenerator generates recurrent purchase events per customer, the
// transactional shape the gap-time analysis consumes. Times are days since
// the configured start date.
type PurchaseGenerator struct {
	config PurchaseGeneratorConfig
	rng    *rand.Rand
}

// NewPurchaseGenerator creates a seeded generator.
func NewPurchaseGenerator(config PurchaseGeneratorConfig) *PurchaseGenerator {
	return &PurchaseGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces the full observation stream across all customers.
func (g *PurchaseGenerator) Generate() []survival.Observation {
	var observations []survival.Observation
	for i := 0; i < g.config.CustomerCount; i++ {
		customerID := core.SubjectID(fmt.Sprintf("customer_%04d", i+1))
		observations = append(observations, g.generateJourney(customerID)...)
	}
	return observations
}

// generateJourney produces one customer's purchase times with exponential
// inter-purchase gaps. Every purchase is an observed event; the terminal
// censoring of the last gap is the builder's job, not the generator's.
func (g *PurchaseGenerator) generateJourney(customerID core.SubjectID) []survival.Observation {
	purchases := int(g.config.AvgPurchasesPerCustomer + g.rng.NormFloat64()*1.5)
	if purchases < 1 {
		purchases = 1
	}
	if purchases > 12 {
		purchases = 12
	}

	observations := make([]survival.Observation, 0, purchases)
	// First purchase happens within roughly one mean gap of the start.
	t := g.rng.Float64() * g.config.MeanGapDays
	for i := 0; i < purchases; i++ {
		observations = append(observations, survival.Observation{
			Subject: customerID,
			Time:    t,
			Event:   true,
			Count:   1,
			Amount:  g.randomAmount(),
		})
		t += g.rng.ExpFloat64() * g.config.MeanGapDays
	}
	return observations
}

func (g *PurchaseGenerator) randomAmount() float64 {
	amount := g.config.MeanAmount * (0.5 + g.rng.Float64())
	return float64(int(amount*100)) / 100
}
