package textnorm

// Static correction tables for common OCR misreads. Kept as data rather
// than inline conditionals so new entries never touch control flow.

// digitRepairs maps digits that OCR engines routinely confuse with
// letters. The repair applies only inside tokens that are otherwise
// alphabetic, so genuine numbers and coordinates pass through untouched.
var digitRepairs = map[rune]rune{
	'0': 'O',
	'1': 'I',
	'5': 'S',
	'8': 'B',
}

// wordFixes maps whole-word, case-insensitive misreads to their intended
// place names. Grown from misreads seen on real delivery sheets.
var wordFixes = map[string]string{
	"mumbei":    "Mumbai",
	"mumbal":    "Mumbai",
	"dehli":     "Delhi",
	"delh1":     "Delhi",
	"bangalor":  "Bangalore",
	"bengaluru": "Bengaluru",
	"kolkatta":  "Kolkata",
	"chenai":    "Chennai",
	"hyderbad":  "Hyderabad",
	"puna":      "Pune",
	"newyork":   "New York",
	"lond0n":    "London",
}
