package rowio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multisend/internal/domain/entity"
)

func TestReadRows(t *testing.T) {
	t.Run("parses canonical header", func(t *testing.T) {
		input := "network,privateKey,token\nSOL-mainnet,abc,\nBSC,def,0x1234\n"
		rows, problems, err := ReadRows(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, problems)
		assert.Equal(t, []entity.ParsedRow{
			{Network: "SOL-mainnet", PrivateKey: "abc"},
			{Network: "BSC", PrivateKey: "def", Token: "0x1234"},
		}, rows)
	})

	t.Run("accepts header aliases case-insensitively", func(t *testing.T) {
		input := "Chain,Private_Key,Contract\nbsc,def,0x1234\n"
		rows, problems, err := ReadRows(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, problems)
		require.Len(t, rows, 1)
		assert.Equal(t, "bsc", rows[0].Network)
		assert.Equal(t, "def", rows[0].PrivateKey)
		assert.Equal(t, "0x1234", rows[0].Token)
	})

	t.Run("token column is optional", func(t *testing.T) {
		input := "network,privateKey\nSOL,abc\n"
		rows, _, err := ReadRows(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].Token)
	})

	t.Run("reports rows with missing cells without failing the import", func(t *testing.T) {
		input := "network,privateKey,token\n,abc,\nSOL,,\nSOL,abc,\n"
		rows, problems, err := ReadRows(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		require.Len(t, problems, 2)
		assert.Contains(t, problems[0], "line 2")
		assert.Contains(t, problems[1], "line 3")
	})

	t.Run("skips fully blank rows silently", func(t *testing.T) {
		input := "network,privateKey,token\nSOL,abc,\n,,\n"
		rows, problems, err := ReadRows(strings.NewReader(input))
		require.NoError(t, err)
		assert.Empty(t, problems)
		assert.Len(t, rows, 1)
	})

	t.Run("rejects header without a key column", func(t *testing.T) {
		_, _, err := ReadRows(strings.NewReader("network,token\nSOL,abc\n"))
		assert.Error(t, err)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, _, err := ReadRows(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestTemplate(t *testing.T) {
	rows, problems, err := ReadRows(strings.NewReader(Template()))
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.Len(t, rows, 3)
}
