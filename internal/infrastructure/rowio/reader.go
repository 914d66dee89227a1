package rowio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"multisend/internal/domain/entity"
)

// Header aliases accepted on import. Matching is case-insensitive and
// ignores underscores, so "Private_Key" and "privatekey" both resolve.
var headerAliases = map[string]string{
	"network":       "network",
	"chain":         "network",
	"privatekey":    "privateKey",
	"privatekeyhex": "privateKey",
	"key":           "privateKey",
	"token":         "token",
	"tokenaddress":  "token",
	"contract":      "token",
	"mint":          "token",
}

// ReadRows parses a CSV stream into rows. The first record is the header;
// unknown columns are ignored and rows missing a network or key cell are
// skipped with a line-numbered error in the returned slice of problems.
func ReadRows(r io.Reader) ([]entity.ParsedRow, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("input is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header row: %w", err)
	}

	columns := make(map[string]int)
	for i, cell := range header {
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(cell)), "_", "")
		if canonical, known := headerAliases[normalized]; known {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}
	if _, ok := columns["network"]; !ok {
		return nil, nil, fmt.Errorf("header has no network column (accepted: network, chain)")
	}
	if _, ok := columns["privateKey"]; !ok {
		return nil, nil, fmt.Errorf("header has no private key column (accepted: privateKey, key)")
	}

	var (
		rows     []entity.ParsedRow
		problems []string
	)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		row := entity.ParsedRow{
			Network:    cell(record, columns, "network"),
			PrivateKey: cell(record, columns, "privateKey"),
			Token:      cell(record, columns, "token"),
		}
		if row.Network == "" && row.PrivateKey == "" && row.Token == "" {
			continue
		}
		if row.Network == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing network cell", line))
			continue
		}
		if row.PrivateKey == "" {
			problems = append(problems, fmt.Sprintf("line %d: missing private key cell", line))
			continue
		}
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func cell(record []string, columns map[string]int, name string) string {
	index, ok := columns[name]
	if !ok || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// Template returns a CSV skeleton users can fill in and re-import.
func Template() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"network", "privateKey", "token"})
	_ = w.Write([]string{"SOL-mainnet", "<base58 secret key>", ""})
	_ = w.Write([]string{"SOL-mainnet", "<base58 secret key>", "<mint address>"})
	_ = w.Write([]string{"BSC", "<64 hex characters>", "<contract address>"})
	w.Flush()
	return b.String()
}
