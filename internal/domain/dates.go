package domain

// Date layouts used across the system. Trades and equity points carry the
// dashed form; snapshot files and store keys use the compact form.
const (
	DateLayout        = "2006-01-02"
	CompactDateLayout = "20060102"
)
