package boutique

import (
	"context"
	"fmt"
	"time"

	"github.com/shopconcierge/backend/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// DefaultTimeout bounds every catalog and cart call
const DefaultTimeout = 10 * time.Second

// Dial opens a plaintext connection to a boutique service. Connecting is lazy.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// invoker runs unary calls with a per-call timeout and maps failures to domain errors
type invoker struct {
	conn    grpc.ClientConnInterface
	msgs    *Messages
	timeout time.Duration
	logger  *zap.Logger
}

func newInvoker(conn grpc.ClientConnInterface, timeout time.Duration, logger *zap.Logger) (invoker, error) {
	msgs, err := Descriptors()
	if err != nil {
		return invoker{}, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return invoker{conn: conn, msgs: msgs, timeout: timeout, logger: logger}, nil
}

func (i invoker) invoke(ctx context.Context, method string, req, resp interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	err := i.conn.Invoke(callCtx, method, req, resp)
	if err != nil {
		i.logger.Warn("boutique call failed",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return mapStatus(method, err)
	}

	i.logger.Debug("boutique call", zap.String("method", method), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// mapStatus translates a gRPC status into the domain sentinels
func mapStatus(method string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", method, err)
	}

	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, method, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, method, st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s: %w", domain.ErrUnavailable, method, context.DeadlineExceeded)
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return fmt.Errorf("%w: %s: %s", domain.ErrUnavailable, method, st.Message())
	}
	return fmt.Errorf("%s: %s: %s", method, st.Code(), st.Message())
}
