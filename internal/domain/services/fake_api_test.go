package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/athebyme/gomarket-platform/harvester/internal/payload"
)

type fakeCall struct {
	Endpoint string
	Body     string
}

// fakeAPI отвечает по эндпоинту; обработчик получает тело запроса в JSON
type fakeAPI struct {
	mu       sync.Mutex
	calls    []fakeCall
	handlers map[string]func(body string) (string, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{handlers: make(map[string]func(string) (string, error))}
}

func (f *fakeAPI) on(endpoint string, h func(body string) (string, error)) *fakeAPI {
	f.handlers[endpoint] = h
	return f
}

func (f *fakeAPI) reply(endpoint, response string) *fakeAPI {
	return f.on(endpoint, func(string) (string, error) { return response, nil })
}

func (f *fakeAPI) Send(_ context.Context, endpoint string, body any) (payload.Node, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return payload.Node{}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Endpoint: endpoint, Body: string(b)})
	h, ok := f.handlers[endpoint]
	f.mu.Unlock()

	if !ok {
		return payload.Node{}, fmt.Errorf("unexpected endpoint %s", endpoint)
	}
	resp, err := h(string(b))
	if err != nil {
		return payload.Node{}, err
	}
	return payload.MustParse(resp), nil
}

func (f *fakeAPI) callsTo(endpoint string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Endpoint == endpoint {
			out = append(out, c)
		}
	}
	return out
}
