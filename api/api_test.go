// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/subquery/network-ledger/api"
	"github.com/subquery/network-ledger/ledger"
	"github.com/subquery/network-ledger/logdb"
	"github.com/subquery/network-ledger/lvldb"
	"github.com/subquery/network-ledger/metrics"
	"github.com/subquery/network-ledger/sq"
)

const metadata = "0x0101010101010101010101010101010101010101010101010101010101010101"

func init() {
	metrics.InitializePrometheusMetrics()
}

type testServer struct {
	*httptest.Server
	ledger *ledger.Ledger
	clock  *clockwork.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logs, err := logdb.NewMem()
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l, err := ledger.Open(db, logs, clock, ledger.DevGenesis(), ledger.Options{})
	require.NoError(t, err)

	handler, closeSubs := api.New(l, api.Options{
		AllowedOrigins:  "*",
		LogsLimit:       100,
		EnableMetrics:   true,
		EnableReqLogger: &atomic.Bool{},
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		ts.Close()
		logs.Close()
		db.Close()
	})
	return &testServer{ts, l, clock}
}

func (ts *testServer) post(t *testing.T, path string, body any) (map[string]any, int) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return decode(t, res)
}

func (ts *testServer) get(t *testing.T, path string) (map[string]any, int) {
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	return decode(t, res)
}

func decode(t *testing.T, res *http.Response) (map[string]any, int) {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return out, res.StatusCode
}

func TestCommands(t *testing.T) {
	ts := newTestServer(t)

	receipt, code := ts.post(t, "/eras/start", map[string]any{"caller": "owner"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "startNewEra", receipt["name"])
	assert.Equal(t, float64(2), receipt["era"])

	_, code = ts.post(t, "/stakers/transfer", map[string]any{"caller": "owner", "to": "runner", "amount": "5000"})
	require.Equal(t, http.StatusOK, code)

	_, code = ts.post(t, "/runners", map[string]any{
		"caller": "runner", "amount": "1000", "rate": 100, "metadata": metadata,
	})
	require.Equal(t, http.StatusOK, code)

	runner, code := ts.get(t, "/runners/runner")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, metadata, runner["metadata"])

	_, code = ts.get(t, "/runners/nobody")
	assert.Equal(t, http.StatusNotFound, code)

	account, code := ts.get(t, "/stakers/runner")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "4000", account["balance"])

	era, code := ts.get(t, "/eras")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), era["number"])
}

func TestCommandErrors(t *testing.T) {
	ts := newTestServer(t)

	revert, code := ts.post(t, "/stakers/transfer", map[string]any{"caller": "alice", "to": "bob", "amount": "1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "T001", revert["code"])

	revert, code = ts.post(t, "/admin/maintenance", map[string]any{"caller": "alice", "on": true})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "G001", revert["code"])

	_, code = ts.post(t, "/stakers/transfer", map[string]any{"caller": "owner", "to": "bob", "amount": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = ts.post(t, "/stakers/transfer", map[string]any{"caller": "owner", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = ts.post(t, "/admin/params", map[string]any{"caller": "owner", "name": "nope", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, code)

	// nothing above was committed
	assert.Equal(t, uint64(0), ts.ledger.Head().Number)
}

func TestAdmin(t *testing.T) {
	ts := newTestServer(t)

	_, code := ts.post(t, "/admin/params", map[string]any{"caller": "owner", "name": "lockPeriod", "value": "3600"})
	require.Equal(t, http.StatusOK, code)
	params, code := ts.get(t, "/admin/params")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3600", params["lockPeriod"])
	assert.Equal(t, "1000", params["minimumStakingAmount"])

	_, code = ts.post(t, "/admin/mint", map[string]any{"caller": "owner", "to": "alice", "amount": "12.5"})
	require.Equal(t, http.StatusOK, code)
	account, _ := ts.get(t, "/stakers/alice")
	assert.Equal(t, "12.5", account["balance"])

	head, code := ts.get(t, "/admin/head")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), head["number"])

	level, code := ts.post(t, "/admin/loglevel", map[string]any{"level": "warn"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "WARN", level["currentLevel"])
}

func (ts *testServer) register(t *testing.T, runner string) {
	_, code := ts.post(t, "/stakers/transfer", map[string]any{"caller": "owner", "to": runner, "amount": "1000"})
	require.Equal(t, http.StatusOK, code)
	_, code = ts.post(t, "/runners", map[string]any{"caller": runner, "amount": "1000", "rate": 100})
	require.Equal(t, http.StatusOK, code)
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)

	_, code := ts.post(t, "/eras/start", map[string]any{"caller": "owner"})
	require.Equal(t, http.StatusOK, code)
	ts.register(t, "runner")
	ts.register(t, "other")

	data, _ := json.Marshal(map[string]any{
		"criteriaSet": []map[string]any{{"name": "RegisterIndexer", "subject": "runner"}},
	})
	res, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var events []*logdb.Event
	require.NoError(t, json.NewDecoder(res.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "RegisterIndexer", events[0].Name)
	assert.Equal(t, sq.NamedAddress("runner"), *events[0].Subjects[0])

	res, err = http.Get(ts.URL + "/events?after=0&limit=1")
	require.NoError(t, err)
	defer res.Body.Close()
	var page []*logdb.Event
	require.NoError(t, json.NewDecoder(res.Body).Decode(&page))
	assert.Len(t, page, 1)

	_, code = ts.get(t, "/events?limit=1000")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMetricsMiddleware(t *testing.T) {
	ts := newTestServer(t)

	ts.get(t, "/eras")
	ts.get(t, "/runners/nobody")
	ts.get(t, "/not-a-route")

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(res.Body)
	require.NoError(t, err)

	family := families["ledger_api_request_count"]
	require.NotNil(t, family)
	seen := make(map[string]string)
	for _, m := range family.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		seen[labels["name"]] = labels["code"]
	}
	assert.Equal(t, "200", seen["GET /eras"])
	assert.Equal(t, "404", seen["GET /runners/{runner}"])
	for name := range seen {
		assert.NotContains(t, name, "not-a-route")
	}
}

func TestSubscribeEvents(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() {
		http.DefaultClient.CloseIdleConnections()
		goleak.VerifyNone(t, ignore,
			goleak.IgnoreTopFunction("github.com/syndtr/goleveldb/leveldb.(*DB).mpoolDrain"))
	})

	ts := newTestServer(t)
	_, code := ts.post(t, "/eras/start", map[string]any{"caller": "owner"})
	require.Equal(t, http.StatusOK, code)

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/events", RawQuery: "pos=0&name=RegisterIndexer"}
	conn, res, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer res.Body.Close()

	ts.register(t, "runner")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev logdb.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "RegisterIndexer", ev.Name)
	assert.Positive(t, ev.Seq)

	require.NoError(t, conn.Close())
}

func TestSubscribeBadPosition(t *testing.T) {
	ts := newTestServer(t)

	_, code := ts.get(t, "/subscriptions/events?pos=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	_, code = ts.get(t, "/subscriptions/events?pos=999999999")
	assert.Equal(t, http.StatusBadRequest, code)
}
