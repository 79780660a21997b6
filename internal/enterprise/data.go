// Package enterprise provides a deterministic mock of the company's CRM, ERP,
// support, and HRIS systems. Workers cite these query results instead of
// inventing figures.
package enterprise

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// anchor pins all generated dates so repeated runs produce identical data.
var anchor = time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)

// Customer is one policyholder in the CRM.
type Customer struct {
	ID           string
	Name         string
	Segment      string // enterprise, smb, individual
	PolicyType   string // life, health, auto, home, commercial
	Premium      float64
	TenureMonths int
	ChurnRisk    float64 // 0-1
	Satisfaction float64 // 1-10
	LastContact  time.Time
	RenewalDate  time.Time
	ClaimsCount  int
	ClaimsValue  float64
	Channel      string
	CAC          float64
}

// Policy is one product line in the portfolio.
type Policy struct {
	ID             string
	Name           string
	Type           string
	BasePremium    float64
	LossRatio      float64
	RetentionRate  float64
	GrowthRate     float64
	ActivePolicies int
	AnnualRevenue  float64
}

// Opportunity is one deal in the sales pipeline.
type Opportunity struct {
	ID             string
	CustomerID     string
	PolicyType     string
	EstimatedValue float64
	Stage          string
	Probability    float64
	Created        time.Time
	ExpectedClose  time.Time
	AssignedRep    string
	Source         string
}

// Campaign is one marketing campaign with attributed results.
type Campaign struct {
	ID                string
	Name              string
	Channel           string
	Budget            float64
	Spent             float64
	LeadsGenerated    int
	Opportunities     int
	PoliciesSold      int
	RevenueAttributed float64
	Status            string
}

// Ticket is one support case.
type Ticket struct {
	ID            string
	CustomerID    string
	Category      string
	Priority      string
	Status        string
	CreatedAt     time.Time
	ResolvedAt    time.Time
	Satisfaction  float64
	ChurnRiskFlag bool
}

// Employee is one HRIS record.
type Employee struct {
	ID          string
	Name        string
	Department  string
	Role        string
	Level       string
	Salary      float64
	HireDate    time.Time
	Performance float64
	Utilization float64
}

// QuarterMetrics is one quarter of company financials.
type QuarterMetrics struct {
	Period        string
	Revenue       float64
	ClaimsPaid    float64
	GrossProfit   float64
	Opex          float64
	EBITDA        float64
	CashFlow      float64
	LossRatio     float64
	CombinedRatio float64
	CAC           float64
	LTV           float64
	LTVCACRatio   float64
	RetentionRate float64
}

// DepartmentBudget is one department's annual budget position.
type DepartmentBudget struct {
	Department string
	Annual     float64
	Spent      float64
	Available  float64
}

// CustomerSummary aggregates the customer base.
type CustomerSummary struct {
	Total           int
	HighChurnRisk   int // churn risk >= 0.7
	HighValue       int // premium >= $5k
	AvgSatisfaction float64
	AvgPremium      float64
	TotalPremium    float64
}

// TicketSummary aggregates the support queue.
type TicketSummary struct {
	Total              int
	Open               int
	ResolutionRate     float64
	AvgResolutionHours float64
	AvgSatisfaction    float64
	ChurnRiskFlags     int
}

// DataSource holds the generated dataset. Construction is deterministic: the
// same seed always yields the same records.
type DataSource struct {
	customers     []Customer
	policies      []Policy
	opportunities []Opportunity
	campaigns     []Campaign
	tickets       []Ticket
	employees     []Employee
	quarters      []QuarterMetrics
	budgets       map[string]float64
}

// defaultBudgets are the annual department budget limits.
var defaultBudgets = map[string]float64{
	"marketing":  8_000_000,
	"sales":      5_000_000,
	"operations": 12_000_000,
	"support":    6_000_000,
	"hr":         2_000_000,
	"technology": 10_000_000,
}

// NewDataSource builds the full dataset from a fixed seed.
func NewDataSource() *DataSource {
	d := &DataSource{budgets: defaultBudgets}
	d.generate(rand.New(rand.NewSource(42)))
	return d
}

func (d *DataSource) generate(r *rand.Rand) {
	d.policies = []Policy{
		{ID: "POL-LIFE-001", Name: "Term Life Plus", Type: "life", BasePremium: 1200, LossRatio: 0.65, RetentionRate: 0.88, GrowthRate: 0.03, ActivePolicies: 45000, AnnualRevenue: 54_000_000},
		{ID: "POL-HEALTH-001", Name: "Premium Health Shield", Type: "health", BasePremium: 3600, LossRatio: 0.72, RetentionRate: 0.82, GrowthRate: 0.05, ActivePolicies: 32000, AnnualRevenue: 115_200_000},
		{ID: "POL-AUTO-001", Name: "Complete Auto Coverage", Type: "auto", BasePremium: 1800, LossRatio: 0.68, RetentionRate: 0.85, GrowthRate: 0.02, ActivePolicies: 58000, AnnualRevenue: 104_400_000},
		{ID: "POL-HOME-001", Name: "Homeowner's Protect", Type: "home", BasePremium: 2400, LossRatio: 0.55, RetentionRate: 0.90, GrowthRate: 0.04, ActivePolicies: 41000, AnnualRevenue: 98_400_000},
		{ID: "POL-COMM-001", Name: "Business Comprehensive", Type: "commercial", BasePremium: 8500, LossRatio: 0.58, RetentionRate: 0.92, GrowthRate: 0.06, ActivePolicies: 8500, AnnualRevenue: 72_250_000},
	}

	segments := []string{"enterprise", "smb", "individual"}
	policyTypes := []string{"life", "health", "auto", "home", "commercial"}
	channels := []string{"digital", "agent", "referral", "partnership", "direct_mail"}
	basePremiums := map[string]float64{"life": 1200, "health": 3600, "auto": 1800, "home": 2400, "commercial": 8500}

	for i := 0; i < 1000; i++ {
		segment := segments[r.Intn(len(segments))]
		policyType := policyTypes[r.Intn(len(policyTypes))]

		premium := basePremiums[policyType]
		switch segment {
		case "enterprise":
			premium *= 5
		case "smb":
			premium *= 2
		}

		tenure := 1 + r.Intn(120)
		satisfaction := 6.5 + r.Float64()*3.0
		claims := r.Intn(6)
		churn := (1-satisfaction/10)*0.4 + float64(claims)/10*0.3 + (r.Float64()*0.2 - 0.1)
		churn = clamp(churn, 0, 1)

		cac := 200 + r.Float64()*1300
		if segment != "individual" {
			cac = 1000 + r.Float64()*4000
		}

		d.customers = append(d.customers, Customer{
			ID:           fmt.Sprintf("CUST-%05d", i+1),
			Name:         fmt.Sprintf("Customer %d", i+1),
			Segment:      segment,
			PolicyType:   policyType,
			Premium:      premium * (0.9 + r.Float64()*0.4),
			TenureMonths: tenure,
			ChurnRisk:    churn,
			Satisfaction: satisfaction,
			LastContact:  anchor.AddDate(0, 0, -(1 + r.Intn(90))),
			RenewalDate:  anchor.AddDate(0, 0, 30+r.Intn(336)),
			ClaimsCount:  claims,
			ClaimsValue:  float64(claims) * (2000 + r.Float64()*13000),
			Channel:      channels[r.Intn(len(channels))],
			CAC:          cac,
		})
	}

	stages := []string{"prospect", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}
	stageProbs := map[string]float64{"prospect": 0.1, "qualified": 0.25, "proposal": 0.4, "negotiation": 0.6, "closed_won": 1.0, "closed_lost": 0.0}
	reps := []string{"Alice Chen", "Bob Martinez", "Carol Williams", "David Park", "Emma Thompson"}
	sources := []string{"website", "referral", "event", "cold_call", "partner"}

	for i := 0; i < 250; i++ {
		stage := stages[r.Intn(len(stages))]
		d.opportunities = append(d.opportunities, Opportunity{
			ID:             fmt.Sprintf("OPP-%05d", i+1),
			CustomerID:     fmt.Sprintf("CUST-%05d", 1+r.Intn(1000)),
			PolicyType:     policyTypes[r.Intn(len(policyTypes))],
			EstimatedValue: 5000 + r.Float64()*45000,
			Stage:          stage,
			Probability:    stageProbs[stage],
			Created:        anchor.AddDate(0, 0, -(1 + r.Intn(180))),
			ExpectedClose:  anchor.AddDate(0, 0, 1+r.Intn(90)),
			AssignedRep:    reps[r.Intn(len(reps))],
			Source:         sources[r.Intn(len(sources))],
		})
	}

	d.campaigns = []Campaign{
		{ID: "CAMP-001", Name: "Summer Retention Drive", Channel: "email", Budget: 150000, Spent: 120000, LeadsGenerated: 4500, Opportunities: 320, PoliciesSold: 180, RevenueAttributed: 850000, Status: "active"},
		{ID: "CAMP-002", Name: "Digital Acquisition Q3", Channel: "digital", Budget: 300000, Spent: 280000, LeadsGenerated: 8200, Opportunities: 650, PoliciesSold: 340, RevenueAttributed: 1850000, Status: "active"},
		{ID: "CAMP-003", Name: "Agent Network Expansion", Channel: "partnerships", Budget: 200000, Spent: 180000, LeadsGenerated: 1200, Opportunities: 480, PoliciesSold: 290, RevenueAttributed: 1450000, Status: "active"},
		{ID: "CAMP-004", Name: "SMB Roadshow Series", Channel: "events", Budget: 120000, Spent: 95000, LeadsGenerated: 800, Opportunities: 280, PoliciesSold: 165, RevenueAttributed: 920000, Status: "completed"},
		{ID: "CAMP-005", Name: "Direct Mail Renewal", Channel: "direct", Budget: 80000, Spent: 78000, LeadsGenerated: 3200, Opportunities: 180, PoliciesSold: 125, RevenueAttributed: 520000, Status: "completed"},
	}

	categories := []string{"claim", "billing", "policy", "technical", "complaint"}
	priorities := []string{"low", "medium", "high", "critical"}

	for i := 0; i < 500; i++ {
		created := anchor.AddDate(0, 0, -(1 + r.Intn(60)))
		tk := Ticket{
			ID:            fmt.Sprintf("TICK-%05d", i+1),
			CustomerID:    fmt.Sprintf("CUST-%05d", 1+r.Intn(1000)),
			Category:      categories[r.Intn(len(categories))],
			Priority:      priorities[r.Intn(len(priorities))],
			CreatedAt:     created,
			ChurnRiskFlag: r.Float64() < 0.15,
		}
		if r.Float64() < 0.2 {
			tk.Status = "open"
		} else {
			tk.ResolvedAt = created.Add(time.Duration(1+r.Intn(72)) * time.Hour)
			tk.Status = []string{"resolved", "closed"}[r.Intn(2)]
			tk.Satisfaction = 6.0 + r.Float64()*4.0
		}
		d.tickets = append(d.tickets, tk)
	}

	departments := []string{"sales", "marketing", "finance", "operations", "support", "hr", "it", "legal"}
	roles := map[string][]string{
		"sales":      {"Sales Rep", "Account Executive", "Sales Manager", "VP Sales", "Chief Revenue Officer"},
		"marketing":  {"Marketing Associate", "Campaign Manager", "Brand Manager", "Director Marketing", "CMO"},
		"finance":    {"Financial Analyst", "Accountant", "Finance Manager", "VP Finance", "CFO"},
		"operations": {"Operations Associate", "Process Analyst", "Operations Manager", "VP Operations", "COO"},
		"support":    {"Support Agent", "Team Lead", "Support Manager", "VP Support", "VP CX"},
		"hr":         {"HR Coordinator", "Recruiter", "HR Manager", "VP HR", "CHRO"},
		"it":         {"Developer", "System Admin", "IT Manager", "VP Engineering", "CTO"},
		"legal":      {"Paralegal", "Attorney", "Legal Counsel", "Associate General Counsel", "General Counsel"},
	}
	levels := []string{"entry", "mid", "senior", "lead", "executive"}
	baseSalaries := map[string]float64{"entry": 45000, "mid": 70000, "senior": 105000, "lead": 145000, "executive": 225000}

	for i := 0; i < 150; i++ {
		dept := departments[r.Intn(len(departments))]
		levelIdx := r.Intn(len(levels))
		level := levels[levelIdx]
		d.employees = append(d.employees, Employee{
			ID:          fmt.Sprintf("EMP-%04d", i+1),
			Name:        fmt.Sprintf("Employee %d", i+1),
			Department:  dept,
			Role:        roles[dept][levelIdx],
			Level:       level,
			Salary:      baseSalaries[level] * (0.9 + r.Float64()*0.3),
			HireDate:    anchor.AddDate(0, 0, -(30 + r.Intn(1795))),
			Performance: 2.5 + r.Float64()*2.5,
			Utilization: 0.6 + r.Float64()*0.35,
		})
	}

	for i := 0; i < 8; i++ {
		revenue := 125_000_000 + float64(i)*2_500_000 + (r.Float64()*4_000_000 - 2_000_000)
		lossRatio := 0.68 + (r.Float64()*0.06 - 0.03)
		claimsPaid := revenue * lossRatio
		grossProfit := revenue - claimsPaid
		opex := revenue*0.22 + (r.Float64()*2_000_000 - 1_000_000)

		d.quarters = append(d.quarters, QuarterMetrics{
			Period:        fmt.Sprintf("Q%d %d", (i%4)+1, 2023+i/4),
			Revenue:       revenue,
			ClaimsPaid:    claimsPaid,
			GrossProfit:   grossProfit,
			Opex:          opex,
			EBITDA:        grossProfit - opex,
			CashFlow:      grossProfit - opex + 2_000_000 + r.Float64()*3_000_000,
			LossRatio:     lossRatio,
			CombinedRatio: lossRatio + opex/revenue,
			CAC:           850 + r.Float64()*250,
			LTV:           4500 + r.Float64()*1000,
			LTVCACRatio:   4.5 + r.Float64(),
			RetentionRate: 0.84 + (r.Float64()*0.04 - 0.02),
		})
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BudgetStatus returns each department's annual budget position, sorted by
// department name. Spend is tracked at the halfway mark of the fiscal year.
func (d *DataSource) BudgetStatus() []DepartmentBudget {
	out := make([]DepartmentBudget, 0, len(d.budgets))
	for dept, annual := range d.budgets {
		spent := annual * 0.5
		out = append(out, DepartmentBudget{
			Department: dept,
			Annual:     annual,
			Spent:      spent,
			Available:  annual - spent,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}

// DepartmentBudgets returns the annual limits keyed by department.
func (d *DataSource) DepartmentBudgets() map[string]float64 {
	out := make(map[string]float64, len(d.budgets))
	for k, v := range d.budgets {
		out[k] = v
	}
	return out
}

// CustomerSummary aggregates the customer base.
func (d *DataSource) CustomerSummary() CustomerSummary {
	s := CustomerSummary{Total: len(d.customers)}
	var satSum float64
	for _, c := range d.customers {
		if c.ChurnRisk >= 0.7 {
			s.HighChurnRisk++
		}
		if c.Premium >= 5000 {
			s.HighValue++
		}
		satSum += c.Satisfaction
		s.TotalPremium += c.Premium
	}
	if s.Total > 0 {
		s.AvgSatisfaction = satSum / float64(s.Total)
		s.AvgPremium = s.TotalPremium / float64(s.Total)
	}
	return s
}

// CustomersByChurnRisk returns customers at or above the churn risk threshold.
func (d *DataSource) CustomersByChurnRisk(threshold float64) []Customer {
	var out []Customer
	for _, c := range d.customers {
		if c.ChurnRisk >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// HighValueCustomers returns customers at or above the premium threshold.
func (d *DataSource) HighValueCustomers(minPremium float64) []Customer {
	var out []Customer
	for _, c := range d.customers {
		if c.Premium >= minPremium {
			out = append(out, c)
		}
	}
	return out
}

// PipelineValue returns the probability-weighted value of all open deals.
func (d *DataSource) PipelineValue() float64 {
	var total float64
	for _, o := range d.opportunities {
		total += o.EstimatedValue * o.Probability
	}
	return total
}

// OpportunityCount returns the number of pipeline deals.
func (d *DataSource) OpportunityCount() int {
	return len(d.opportunities)
}

// Campaigns returns all marketing campaigns.
func (d *DataSource) Campaigns() []Campaign {
	return append([]Campaign(nil), d.campaigns...)
}

// CampaignROI computes return on spend for one campaign. Unknown ids and
// zero-spend campaigns report 0.
func (d *DataSource) CampaignROI(id string) float64 {
	for _, c := range d.campaigns {
		if c.ID == id && c.Spent > 0 {
			return (c.RevenueAttributed - c.Spent) / c.Spent
		}
	}
	return 0
}

// TicketSummary aggregates the support queue.
func (d *DataSource) TicketSummary() TicketSummary {
	s := TicketSummary{Total: len(d.tickets)}
	var resolved int
	var resolutionHours, satSum float64
	var satCount int
	for _, t := range d.tickets {
		if t.Status == "open" {
			s.Open++
		}
		if !t.ResolvedAt.IsZero() {
			resolved++
			resolutionHours += t.ResolvedAt.Sub(t.CreatedAt).Hours()
			if t.Satisfaction > 0 {
				satSum += t.Satisfaction
				satCount++
			}
		}
		if t.ChurnRiskFlag {
			s.ChurnRiskFlags++
		}
	}
	if s.Total > 0 {
		s.ResolutionRate = float64(resolved) / float64(s.Total)
	}
	if resolved > 0 {
		s.AvgResolutionHours = resolutionHours / float64(resolved)
	}
	if satCount > 0 {
		s.AvgSatisfaction = satSum / float64(satCount)
	}
	return s
}

// HeadcountByDepartment returns employee counts keyed by department.
func (d *DataSource) HeadcountByDepartment() map[string]int {
	out := make(map[string]int)
	for _, e := range d.employees {
		out[e.Department]++
	}
	return out
}

// CurrentQuarterMetrics returns the most recent quarter's financials.
func (d *DataSource) CurrentQuarterMetrics() QuarterMetrics {
	return d.quarters[len(d.quarters)-1]
}

// QuarterHistory returns all quarters, oldest first.
func (d *DataSource) QuarterHistory() []QuarterMetrics {
	return append([]QuarterMetrics(nil), d.quarters...)
}

// RetentionRate returns the current quarter's customer retention rate.
func (d *DataSource) RetentionRate() float64 {
	return d.CurrentQuarterMetrics().RetentionRate
}

// CAC returns the current quarter's customer acquisition cost.
func (d *DataSource) CAC() float64 {
	return d.CurrentQuarterMetrics().CAC
}

// PolicyPerformance returns portfolio data for one policy type.
func (d *DataSource) PolicyPerformance(policyType string) (Policy, bool) {
	for _, p := range d.policies {
		if p.Type == policyType {
			return p, true
		}
	}
	return Policy{}, false
}
