package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	n.Notify(context.Background(), Event{
		Type:       EventOrderPaid,
		OrderID:    3,
		UserID:     1,
		Reference:  "ref-1",
		Amount:     "24.00",
		OccurredAt: time.Now(),
	})
	require.NoError(t, n.Close())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "order.paid", line["event"])
	require.Equal(t, float64(3), line["order_id"])
	require.Equal(t, "ref-1", line["reference"])
}
