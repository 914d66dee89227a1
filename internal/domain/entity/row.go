package entity

// ParsedRow is one imported spreadsheet line. Parsing out of the source file
// format happens upstream; the engine only sees these three fields.
// Token is optional and may be blank.
type ParsedRow struct {
	Network    string `json:"network"`
	PrivateKey string `json:"privateKey"`
	Token      string `json:"token"`
}
