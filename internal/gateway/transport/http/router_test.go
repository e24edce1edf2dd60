package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/flash-sale/internal/gateway/client"
	"github.com/sakashimaa/flash-sale/internal/gateway/transport/http/handler"
	"github.com/sakashimaa/flash-sale/internal/gateway/ws"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

type noopProducer struct{}

func (noopProducer) PublishEvent(context.Context, string, *events.Envelope) error { return nil }
func (noopProducer) Close() error                                                 { return nil }

func newTestApp() *fiber.App {
	logger := zap.NewNop()
	orders := client.NewOrderClient("http://localhost:0", time.Second)
	inventory := client.NewInventoryClient("http://localhost:0", time.Second)

	handlers := &Handlers{
		Order:   handler.NewOrderHandler(noopProducer{}, orders, logger),
		Product: handler.NewProductHandler(orders, inventory, logger),
	}

	return NewApp(handlers, ws.NewHub(logger))
}

func TestNewApp_TracesRequests(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotEmpty(t, recorder.Ended())
}

func TestNewApp_RateLimitsBursts(t *testing.T) {
	app := newTestApp()

	for i := 0; i < 20; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
