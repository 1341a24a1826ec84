package ledger

import "fmt"

// ChartEntry represents a predefined entry in the restaurant chart of accounts.
type ChartEntry struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Description string      `json:"description"`
}

// RestaurantChart is the chart seeded into an empty account store. Codes follow
// the French plan comptable numbering, classes 1 to 7.
var RestaurantChart = []ChartEntry{
	// Capital, reserves and long-term debt (1xx)
	{Code: "101", Name: "Share capital", Type: TypeEquity, Description: "Capital contributed by the owners"},
	{Code: "106", Name: "Reserves", Type: TypeEquity, Description: "Profits kept in the business"},
	{Code: "120", Name: "Retained result", Type: TypeEquity, Description: "Result of closed financial years"},
	{Code: "164", Name: "Bank loans", Type: TypeLiability, Description: "Loans from credit institutions"},

	// Fixed assets (2xx)
	{Code: "213", Name: "Fixtures and fittings", Type: TypeAsset, Description: "Dining room and kitchen fit-out"},
	{Code: "215", Name: "Kitchen equipment", Type: TypeAsset, Description: "Ovens, cold rooms, dishwashers"},

	// Stock (3xx)
	{Code: "310", Name: "Food stock", Type: TypeAsset, Description: "Raw ingredients on hand"},
	{Code: "370", Name: "Beverage stock", Type: TypeAsset, Description: "Wine, beer and soft drinks on hand"},

	// Third parties (4xx)
	{Code: "401", Name: "Suppliers", Type: TypeLiability, Description: "Amounts owed to suppliers"},
	{Code: "411", Name: "Customers", Type: TypeAsset, Description: "Amounts owed by customers on account"},
	{Code: "421", Name: "Wages payable", Type: TypeLiability, Description: "Net salaries owed to staff"},
	{Code: "431", Name: "Social security payable", Type: TypeLiability, Description: "Contributions owed to social security bodies"},
	{Code: "44566", Name: "VAT deductible", Type: TypeAsset, Description: "VAT paid on purchases"},
	{Code: "44571", Name: "VAT collected", Type: TypeLiability, Description: "VAT charged on sales"},

	// Cash and bank (5xx)
	{Code: "512", Name: "Bank", Type: TypeAsset, Description: "Business current account"},
	{Code: "530", Name: "Cash register", Type: TypeAsset, Description: "Notes and coins in the till"},

	// Expenses (6xx)
	{Code: "601", Name: "Food purchases", Type: TypeExpense, Description: "Ingredients bought from suppliers"},
	{Code: "602", Name: "Beverage purchases", Type: TypeExpense, Description: "Drinks bought from suppliers"},
	{Code: "606", Name: "Small equipment and supplies", Type: TypeExpense, Description: "Consumables, cleaning products, small utensils"},
	{Code: "613", Name: "Rent", Type: TypeExpense, Description: "Premises rent and charges"},
	{Code: "615", Name: "Maintenance and repairs", Type: TypeExpense, Description: "Repairs to premises and equipment"},
	{Code: "625", Name: "Travel and meals", Type: TypeExpense, Description: "Staff expense claims"},
	{Code: "626", Name: "Telecom and postage", Type: TypeExpense, Description: "Phone, internet and mail"},
	{Code: "627", Name: "Bank charges", Type: TypeExpense, Description: "Card terminal and banking fees"},
	{Code: "641", Name: "Salaries", Type: TypeExpense, Description: "Gross staff remuneration"},
	{Code: "645", Name: "Social charges", Type: TypeExpense, Description: "Employer social contributions"},
	{Code: "681", Name: "Depreciation", Type: TypeExpense, Description: "Allocation of fixed asset costs"},

	// Revenues (7xx)
	{Code: "706", Name: "Restaurant sales", Type: TypeRevenue, Description: "Food served to customers"},
	{Code: "707", Name: "Beverage sales", Type: TypeRevenue, Description: "Drinks served to customers"},
	{Code: "758", Name: "Other operating income", Type: TypeRevenue, Description: "Miscellaneous income"},
}

// LookupChartEntry finds a template entry by code.
func LookupChartEntry(code string) *ChartEntry {
	for i := range RestaurantChart {
		if RestaurantChart[i].Code == code {
			return &RestaurantChart[i]
		}
	}
	return nil
}

// Account materializes a template entry as a seeded system account.
func (c ChartEntry) Account() Account {
	class, _ := ClassForCode(c.Code)
	return Account{
		ID:       AccountIDForCode(c.Code),
		Code:     c.Code,
		Name:     c.Name,
		Class:    class,
		Type:     c.Type,
		IsActive: true,
		IsSystem: true,
	}
}

// Designations bind the roles the metrics and the source-document bridge rely on
// to account codes of the chart.
type Designations struct {
	Cash          string `json:"cash" yaml:"cash"`
	SalesRevenue  string `json:"sales_revenue" yaml:"sales_revenue"`
	Purchases     string `json:"purchases" yaml:"purchases"`
	Payables      string `json:"payables" yaml:"payables"`
	COGS          string `json:"cogs" yaml:"cogs"`
	Payroll       string `json:"payroll" yaml:"payroll"`
	ExpenseClaims string `json:"expense_claims" yaml:"expense_claims"`
}

func DefaultDesignations() Designations {
	return Designations{
		Cash:          "512",
		SalesRevenue:  "706",
		Purchases:     "601",
		Payables:      "401",
		COGS:          "601",
		Payroll:       "641",
		ExpenseClaims: "625",
	}
}

// Merge fills empty roles of d from defaults.
func (d Designations) Merge(defaults Designations) Designations {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Designations{
		Cash:          pick(d.Cash, defaults.Cash),
		SalesRevenue:  pick(d.SalesRevenue, defaults.SalesRevenue),
		Purchases:     pick(d.Purchases, defaults.Purchases),
		Payables:      pick(d.Payables, defaults.Payables),
		COGS:          pick(d.COGS, defaults.COGS),
		Payroll:       pick(d.Payroll, defaults.Payroll),
		ExpenseClaims: pick(d.ExpenseClaims, defaults.ExpenseClaims),
	}
}

// CodeFor resolves a posting role to an account code.
func (d Designations) CodeFor(r Role) (string, error) {
	var code string
	switch r {
	case RoleCash:
		code = d.Cash
	case RoleSalesRevenue:
		code = d.SalesRevenue
	case RolePurchases:
		code = d.Purchases
	case RolePayables:
		code = d.Payables
	case RoleExpenseClaims:
		code = d.ExpenseClaims
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, r)
	}
	if code == "" {
		return "", fmt.Errorf("%w: no account designated for %s", ErrInvalidAccount, r)
	}
	return code, nil
}
