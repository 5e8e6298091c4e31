package testkit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
)

// ChurnGeneratorConfig configures the synthetic customer generator
type ChurnGeneratorConfig struct {
	CustomerCount int     `json:"customer_count"`
	MissingRate   float64 `json:"missing_rate"`
	// Intercept shifts the log-odds of churn; lower means fewer churners
	Intercept float64 `json:"intercept"`
	Seed      int64   `json:"seed"`
}

// DefaultChurnConfig returns sensible defaults for churn data generation
func DefaultChurnConfig() ChurnGeneratorConfig {
	return ChurnGeneratorConfig{
		CustomerCount: 500,
		MissingRate:   0.02,
		Intercept:     -1.0,
		Seed:          42,
	}
}

// ChurnColumns is the header written by the generator
var ChurnColumns = []string{
	"customer_id", "age", "tenure_months", "monthly_charges", "support_tickets",
	"plan_type", "contract", "region", "churn",
}

var (
	plans     = []string{"basic", "standard", "premium"}
	contracts = []string{"month-to-month", "one-year", "two-year"}
	regions   = []string{"north", "south", "east", "west"}
)

// Customer is one generated row
type Customer struct {
	ID             string
	Age            int
	TenureMonths   int
	MonthlyCharges float64
	SupportTickets int
	Plan           string
	Contract       string
	Region         string
	Churned        bool
}

// ChurnDataGenerator produces deterministic customer tables for a seed
type ChurnDataGenerator struct {
	config ChurnGeneratorConfig
	rng    *rand.Rand
}

// NewChurnDataGenerator creates a new churn data generator
func NewChurnDataGenerator(config ChurnGeneratorConfig) *ChurnDataGenerator {
	return &ChurnDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateCustomers draws CustomerCount customers. Churn follows a logistic
// model: short tenure, month-to-month contracts, high charges and support
// tickets raise the odds.
func (g *ChurnDataGenerator) GenerateCustomers() []Customer {
	customers := make([]Customer, g.config.CustomerCount)
	for i := range customers {
		c := Customer{
			ID:             fmt.Sprintf("customer_%04d", i+1),
			Age:            18 + g.rng.Intn(60),
			TenureMonths:   1 + g.rng.Intn(72),
			SupportTickets: g.poisson(1.2),
			Plan:           plans[g.rng.Intn(len(plans))],
			Contract:       contracts[g.rng.Intn(len(contracts))],
			Region:         regions[g.rng.Intn(len(regions))],
		}
		c.MonthlyCharges = math.Round((20+g.rng.Float64()*60+planSurcharge(c.Plan))*100) / 100

		z := g.config.Intercept +
			-0.04*float64(c.TenureMonths) +
			0.02*(c.MonthlyCharges-50) +
			0.45*float64(c.SupportTickets) +
			contractEffect(c.Contract)
		c.Churned = g.rng.Float64() < 1/(1+math.Exp(-z))
		customers[i] = c
	}
	return customers
}

// WriteCSV writes a generated table with header. Feature cells are blanked
// at MissingRate; identifiers and labels are never blank.
func (g *ChurnDataGenerator) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ChurnColumns); err != nil {
		return err
	}

	for _, c := range g.GenerateCustomers() {
		churn := "0"
		if c.Churned {
			churn = "1"
		}
		record := []string{
			c.ID,
			g.maybeMissing(strconv.Itoa(c.Age)),
			g.maybeMissing(strconv.Itoa(c.TenureMonths)),
			g.maybeMissing(strconv.FormatFloat(c.MonthlyCharges, 'f', 2, 64)),
			g.maybeMissing(strconv.Itoa(c.SupportTickets)),
			g.maybeMissing(c.Plan),
			g.maybeMissing(c.Contract),
			g.maybeMissing(c.Region),
			churn,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// GenerateCSV returns a generated table as CSV bytes
func GenerateCSV(config ChurnGeneratorConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewChurnDataGenerator(config).WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ChurnDataGenerator) maybeMissing(value string) string {
	if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
		return ""
	}
	return value
}

// poisson draws from a Poisson distribution with Knuth's method
func (g *ChurnDataGenerator) poisson(lambda float64) int {
	limit := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= g.rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func planSurcharge(plan string) float64 {
	switch plan {
	case "premium":
		return 40
	case "standard":
		return 15
	default:
		return 0
	}
}

func contractEffect(contract string) float64 {
	switch contract {
	case "month-to-month":
		return 1.2
	case "one-year":
		return 0
	default:
		return -1.0
	}
}
