package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-ratings/pkg/httputil"
	"github.com/wonny/aegis-ratings/pkg/logger"
)

const constituentsHTML = `<html><body>
<table id="constituents">
<tr><th>Symbol</th><th>Security</th></tr>
<tr><td><a href="#">MSFT</a></td><td>Microsoft</td></tr>
<tr><td>BRK.B</td><td>Berkshire Hathaway</td></tr>
<tr><td> aapl </td><td>Apple Inc.</td></tr>
<tr><td>MSFT</td><td>Duplicate</td></tr>
</table>
<table id="changes"><tr><td>XYZ</td></tr></table>
</body></html>`

func TestParseConstituents(t *testing.T) {
	tickers, err := parseConstituents(strings.NewReader(constituentsHTML))
	require.NoError(t, err)
	require.Len(t, tickers, 3)

	assert.Equal(t, "AAPL", tickers[0].Symbol)
	assert.Equal(t, "BRK-B", tickers[1].Symbol)
	assert.Equal(t, "MSFT", tickers[2].Symbol)
	assert.Equal(t, "Microsoft", tickers[2].Name)
}

func TestParseConstituents_MissingTable(t *testing.T) {
	_, err := parseConstituents(strings.NewReader(`<html><table id="other"></table></html>`))
	assert.Error(t, err)
}

func TestListTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(constituentsHTML))
	}))
	defer server.Close()

	log := logger.Nop()
	src := NewSP500Source(httputil.New(log, 5*time.Second), log, server.URL)

	tickers, err := src.ListTickers(context.Background())
	require.NoError(t, err)
	assert.Len(t, tickers, 3)
}
