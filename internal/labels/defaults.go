package labels

// defaults are the strings shipped with the application, used whenever the
// CMS has no value for a key.
var defaults = Catalog{
	EN: {
		Flat: map[string]string{
			"appName":            "FinTrack",
			"addTransaction":     "Add Transaction",
			"editTransaction":    "Edit Transaction",
			"heroTitle":          "Master Your Money",
			"heroSubtitle":       "Track every penny, visualize your spending, and take control of your financial future.",
			"totalIncome":        "Total Income",
			"totalExpenses":      "Total Expenses",
			"balance":            "Current Balance",
			"date":               "Date",
			"description":        "Description",
			"category":           "Category",
			"amount":             "Amount",
			"currency":           "Currency",
			"type":               "Type",
			"actions":            "Actions",
			"income":             "Income",
			"expense":            "Expense",
			"save":               "Save Transaction",
			"update":             "Update",
			"cancel":             "Cancel",
			"delete":             "Delete",
			"deleteConfirm":      "Are you sure you want to delete this transaction?",
			"searchPlaceholder":  "Search transactions...",
			"noTransactions":     "No transactions yet. Start by adding one!",
			"transactions":       "Transactions",
			"recentActivity":     "Recent Activity",
			"spentToday":         "Spent Today",
			"today":              "Today",
			"liveRates":          "Live Rates",
			"tip":                "Your conversions are based on real-time mid-market rates. Always remember to check bank fees if transferring between currencies!",
			"back":               "Back",
			"transactionDeleted": "Transaction deleted",
			"deleteSuccessMsg":   "The record has been permanently removed.",
			"allCategories":      "All Categories",
			"baseCurrency":       "Base Currency",
			"addCategory":        "Add Category",
			"newCategory":        "New category",
			"clearFilters":       "Clear Filters",
			"startDate":          "From",
			"endDate":            "To",
			"showing":            "Showing",
			"to":                 "to",
			"of":                 "of",
			"previous":           "Previous",
			"next":               "Next",
			"analytics":          "Analytics",
			"expensesByCategory": "Expenses by Category",
			"incomeVsExpense":    "Income vs Expenses",
			"notFound":           "Page not found",
			"required":           "This field is required",
			"invalidAmount":      "Enter an amount greater than zero",
			"invalidCurrency":    "Choose a valid currency",
			"invalidDate":        "Enter a valid date",
			"invalidType":        "Choose income or expense",
			"tooLong":            "This value is too long",
			"language":           "Language",
			"sortDate":           "Sort by date",
			"sortAmount":         "Sort by amount",
			"edit":               "Edit",
		},
		Categories: map[string]string{
			"food":          "Food & Dining",
			"transport":     "Transportation",
			"utilities":     "Bills & Utilities",
			"entertainment": "Entertainment",
			"salary":        "Salary",
			"freelance":     "Freelance",
			"other":         "Other",
		},
		Filters: map[string]string{
			"all":          "All Types",
			"income":       "Income Only",
			"expense":      "Expenses Only",
			"allTime":      "All Time",
			"this-month":   "This Month",
			"last-30-days": "Last 30 Days",
			"custom":       "Custom Range",
		},
	},
	SQ: {
		Flat: map[string]string{
			"appName":            "FinTrack",
			"addTransaction":     "Shto Transaksion",
			"editTransaction":    "Ndrysho Transaksionin",
			"heroTitle":          "Menaxho Paratë Tuaja",
			"heroSubtitle":       "Gjurmoni çdo qindarkë, vizualizoni shpenzimet dhe merrni kontrollin e së ardhmes suaj financiare.",
			"totalIncome":        "Të Ardhurat",
			"totalExpenses":      "Shpenzimet",
			"balance":            "Bilanci Aktual",
			"date":               "Data",
			"description":        "Përshkrimi",
			"category":           "Kategoria",
			"amount":             "Shuma",
			"currency":           "Monedha",
			"type":               "Lloji",
			"actions":            "Veprime",
			"income":             "Të Ardhura",
			"expense":            "Shpenzim",
			"save":               "Ruaj",
			"update":             "Përditëso",
			"cancel":             "Anulo",
			"delete":             "Fshi",
			"deleteConfirm":      "A jeni i sigurt që dëshironi të fshini këtë transaksion?",
			"searchPlaceholder":  "Kërko transaksione...",
			"noTransactions":     "Ende asnjë transaksion. Filloni duke shtuar një!",
			"transactions":       "Transaksionet",
			"recentActivity":     "Aktiviteti i Fundit",
			"spentToday":         "Shpenzuar Sot",
			"today":              "Sot",
			"liveRates":          "Kurset e Këmbimit",
			"back":               "Kthehu",
			"transactionDeleted": "Transaksioni u fshi",
			"allCategories":      "Të Gjitha Kategoritë",
			"baseCurrency":       "Monedha Bazë",
			"addCategory":        "Shto Kategori",
			"clearFilters":       "Pastro Filtrat",
			"startDate":          "Nga",
			"endDate":            "Deri",
			"showing":            "Duke shfaqur",
			"to":                 "deri",
			"of":                 "nga",
			"previous":           "Mbrapa",
			"next":               "Para",
			"notFound":           "Faqja nuk u gjet",
			"required":           "Kjo fushë është e detyrueshme",
			"tip":                "Konvertimet bazohen në kurset e tregut në kohë reale. Kontrolloni gjithmonë tarifat bankare kur transferoni mes monedhave!",
			"deleteSuccessMsg":   "Regjistrimi u fshi përgjithmonë.",
			"newCategory":        "Kategori e re",
			"analytics":          "Analitika",
			"expensesByCategory": "Shpenzimet sipas kategorisë",
			"incomeVsExpense":    "Të ardhura kundrejt shpenzimeve",
			"invalidAmount":      "Vendosni një shumë më të madhe se zero",
			"invalidCurrency":    "Zgjidhni një monedhë të vlefshme",
			"invalidDate":        "Vendosni një datë të vlefshme",
			"invalidType":        "Zgjidhni të ardhura ose shpenzim",
			"tooLong":            "Kjo vlerë është shumë e gjatë",
			"language":           "Gjuha",
			"sortDate":           "Rendit sipas datës",
			"sortAmount":         "Rendit sipas shumës",
			"edit":               "Ndrysho",
		},
		Categories: map[string]string{
			"food":          "Ushqim",
			"transport":     "Transport",
			"utilities":     "Fatura & Shërbime",
			"entertainment": "Argëtim",
			"salary":        "Rroga",
			"freelance":     "Freelance",
			"other":         "Tjetër",
		},
		Filters: map[string]string{
			"all":          "Të Gjitha",
			"income":       "Vetëm Të Ardhurat",
			"expense":      "Vetëm Shpenzimet",
			"this-month":   "Këtë Muaj",
			"last-30-days": "30 Ditët e Fundit",
		},
	},
}
