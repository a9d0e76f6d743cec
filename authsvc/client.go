package authsvc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	spiralverse "github.com/issdandavis/Spiralverse-AetherMoore"
)

// Client calls a remote Authority service.
type Client struct {
	cc     *grpc.ClientConn
	client AuthorityClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the dial options, for example transport credentials
	// replacing the insecure default.
	Extra []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, 0), nil
}

// NewClient wraps an established connection.
func NewClient(cc *grpc.ClientConn, timeout time.Duration) *Client {
	return &Client{cc: cc, client: NewAuthorityClient(cc), Timeout: timeout}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Issue asks the authority for a token and returns its exported form.
func (c *Client) Issue(ctx context.Context, subject string, payload spiralverse.Payload, passphrase string) (string, error) {
	if payload == nil {
		payload = spiralverse.Payload{}
	}
	req, err := structpb.NewStruct(map[string]any{
		"subject":    subject,
		"passphrase": passphrase,
		"payload":    map[string]any(payload),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", spiralverse.ErrPayloadEncoding, err)
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Issue(ctx, req)
	if err != nil {
		return "", mapRPC(err)
	}
	return reply.GetValue(), nil
}

// Verify asks the authority to verify an exported token.
func (c *Client) Verify(ctx context.Context, token, passphrase string) (bool, spiralverse.Payload, error) {
	req, err := structpb.NewStruct(map[string]any{
		"token":      token,
		"passphrase": passphrase,
	})
	if err != nil {
		return false, nil, err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Verify(ctx, req)
	if err != nil {
		return false, nil, mapRPC(err)
	}
	fields := reply.GetFields()
	if !fields["valid"].GetBoolValue() {
		return false, nil, nil
	}
	payload := spiralverse.Payload{}
	if p := fields["payload"].GetStructValue(); p != nil {
		payload = p.AsMap()
	}
	return true, payload, nil
}

// TokenID returns the content identifier of an exported token.
func (c *Client) TokenID(ctx context.Context, exported string) (string, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.TokenID(ctx, wrapperspb.String(exported))
	if err != nil {
		return "", mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
