package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lalith-99/intakedesk/internal/repository/remote"
)

// Remote posts every invocation to /api/functions/{name} and hands back the
// decoded body untouched. None of the local handlers run.
type Remote struct {
	client *remote.Client
}

func NewRemote(client *remote.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Invoke(ctx context.Context, name string, payload any) (*Result, error) {
	if payload == nil {
		payload = struct{}{}
	}
	var body json.RawMessage
	endpoint := r.client.Endpoint(nil, "api", "functions", name)
	if err := r.client.DoJSON(ctx, http.MethodPost, endpoint, payload, &body); err != nil {
		return nil, fmt.Errorf("invoke %s: %w", name, err)
	}
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	return &Result{Data: body}, nil
}
