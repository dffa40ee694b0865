package ledger

// AccountType is the accounting classification of a chart-of-accounts entry
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// AccountID is the stable string key postings reference
type AccountID string

const (
	AccountPoolCash         AccountID = "pool_cash"
	AccountMemberPrincipal  AccountID = "member_principal"
	AccountMemberEarnings   AccountID = "member_earnings"
	AccountInterestIncome   AccountID = "interest_income"
	AccountFeeIncome        AccountID = "fee_income"
	AccountRoundingReserve  AccountID = "rounding_reserve"
	AccountOperatingExpense AccountID = "operating_expense"
)

// Account is one named bucket in the chart of accounts
type Account struct {
	ID          AccountID   `json:"id"`
	Type        AccountType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	IsActive    bool        `json:"is_active"`
}

var chart = []Account{
	{ID: AccountPoolCash, Type: AccountTypeAsset, Name: "Pool Cash", Description: "Cash held by the savings group", IsActive: true},
	{ID: AccountMemberPrincipal, Type: AccountTypeLiability, Name: "Member Principal", Description: "Contributed capital owed back to members", IsActive: true},
	{ID: AccountMemberEarnings, Type: AccountTypeLiability, Name: "Member Earnings", Description: "Interest allocated to members", IsActive: true},
	{ID: AccountInterestIncome, Type: AccountTypeIncome, Name: "Interest Income", Description: "Interest earned by the pool", IsActive: true},
	{ID: AccountFeeIncome, Type: AccountTypeIncome, Name: "Fee Income", Description: "Fees charged to members", IsActive: true},
	{ID: AccountRoundingReserve, Type: AccountTypeLiability, Name: "Rounding Reserve", Description: "Sub-cent remainders from interest allocation", IsActive: true},
	{ID: AccountOperatingExpense, Type: AccountTypeExpense, Name: "Operating Expense", Description: "Costs of running the group", IsActive: true},
}

// ChartOfAccounts returns a copy of the seeded accounts in seed order
func ChartOfAccounts() []Account {
	out := make([]Account, len(chart))
	copy(out, chart)
	return out
}

// LookupAccount finds a seeded account by id
func LookupAccount(id AccountID) (Account, bool) {
	for _, a := range chart {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
