package core

const (
	ToneDanger  AlertTone = "danger"
	ToneWarning AlertTone = "warning"
)

type (
	AlertTone string

	// KPIDeltas holds relative changes against the previous period.
	KPIDeltas struct {
		Income        float64 `json:"income"`
		Expenses      float64 `json:"expenses"`
		Profit        float64 `json:"profit"`
		Margin        float64 `json:"margin"`
		ServicesCount float64 `json:"servicesCount"`
		AvgTicket     float64 `json:"avgTicket"`
	}

	KPISet struct {
		Income        float64    `json:"income"`
		Expenses      float64    `json:"expenses"`
		Profit        float64    `json:"profit"`
		Margin        float64    `json:"margin"`
		ServicesCount int        `json:"servicesCount"`
		AvgTicket     float64    `json:"avgTicket"`
		Deltas        *KPIDeltas `json:"deltas"`
	}

	DailyBucket struct {
		Date    Date    `json:"date"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Profit  float64 `json:"profit"`
	}

	CategoryTotal struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	Alert struct {
		Tone        AlertTone `json:"tone"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
	}

	ActivityItem struct {
		ID            string       `json:"id"`
		Kind          ActivityKind `json:"kind"`
		Date          Date         `json:"date"`
		Title         string       `json:"title"`
		Subtitle      string       `json:"subtitle"`
		Amount        float64      `json:"amount"`
		PaymentMethod string       `json:"paymentMethod"`
	}

	Series struct {
		ByDay              []DailyBucket   `json:"byDay"`
		ExpensesByCategory []CategoryTotal `json:"expensesByCategory"`
	}

	// Diagnostics reports input quality problems found while computing.
	Diagnostics struct {
		AmbiguousDates int `json:"ambiguousDates"`
		UndatedRecords int `json:"undatedRecords"`
	}

	Snapshot struct {
		Range          DateRange      `json:"range"`
		KPIs           KPISet         `json:"kpis"`
		Series         Series         `json:"series"`
		RecentActivity []ActivityItem `json:"recentActivity"`
		Alerts         []Alert        `json:"alerts"`
		Empty          bool           `json:"empty"`
		Diagnostics    Diagnostics    `json:"diagnostics"`
	}
)
