package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// gatewayState is the renewal state owned by the coordinator goroutine.
// The queue only exists inside refreshingState.
type gatewayState interface {
	isGatewayState()
}

type idleState struct{}

type refreshingState struct {
	queue []*waiter
	done  <-chan renewalResult
}

func (idleState) isGatewayState()        {}
func (*refreshingState) isGatewayState() {}

// waiter is a request suspended until the in-flight renewal resolves.
type waiter struct {
	ctx     context.Context
	outcome chan renewalOutcome
}

type renewalOutcome struct {
	credential string
	err        error
	release    func()
	// ended signals the session end at most once per renewal.
	ended *sync.Once
}

type renewalResult struct {
	credential string
	err        error
}

// awaitRenewal queues the caller behind the current renewal, starting one if the gateway is idle.
func (g *Gateway) awaitRenewal(ctx context.Context) (renewalOutcome, error) {
	w := &waiter{ctx: ctx, outcome: make(chan renewalOutcome, 1)}

	select {
	case g.joins <- w:
	case <-ctx.Done():
		return renewalOutcome{}, ctx.Err()
	case <-g.stop:
		return renewalOutcome{}, ErrClosed
	}

	select {
	case out := <-w.outcome:
		if out.release == nil {
			out.release = func() {}
		}
		if out.ended == nil {
			out.ended = &sync.Once{}
		}
		if out.err != nil {
			out.release()
			return renewalOutcome{}, out.err
		}
		return out, nil
	case <-ctx.Done():
		return renewalOutcome{}, ctx.Err()
	case <-g.stop:
		return renewalOutcome{}, ErrClosed
	}
}

func (g *Gateway) coordinate() {
	defer close(g.stopped)

	var state gatewayState = idleState{}
	for {
		var done <-chan renewalResult
		if s, ok := state.(*refreshingState); ok {
			done = s.done
		}

		select {
		case <-g.stop:
			if s, ok := state.(*refreshingState); ok {
				for _, w := range s.queue {
					w.outcome <- renewalOutcome{err: ErrClosed}
				}
			}
			return

		case w := <-g.joins:
			switch s := state.(type) {
			case idleState:
				g.logger.Info("Credential rejected, starting renewal")
				state = &refreshingState{queue: []*waiter{w}, done: g.startRenewal()}
			case *refreshingState:
				s.queue = append(s.queue, w)
			}
			if g.queueHook != nil {
				g.queueHook(len(state.(*refreshingState).queue))
			}

		case res := <-done:
			s := state.(*refreshingState)
			state = idleState{}
			if res.err != nil {
				g.failQueue(s.queue, res.err)
			} else {
				g.replayQueue(s.queue, res.credential)
			}
		}
	}
}

// replayQueue hands the new credential to each queued request in arrival
// order. The next request is released only after the previous one's replay
// round trip finished or its caller went away.
func (g *Gateway) replayQueue(queue []*waiter, credential string) {
	g.logger.Info("Credential renewed, replaying queued requests", zap.Int("queued", len(queue)))
	ended := &sync.Once{}
	for i, w := range queue {
		handedOff := make(chan struct{})
		var once sync.Once
		w.outcome <- renewalOutcome{
			credential: credential,
			release:    func() { once.Do(func() { close(handedOff) }) },
			ended:      ended,
		}
		select {
		case <-handedOff:
		case <-w.ctx.Done():
		case <-g.stop:
			for _, rest := range queue[i+1:] {
				rest.outcome <- renewalOutcome{err: ErrClosed}
			}
			return
		}
	}
}

// failQueue rejects every queued request and signals the login redirect once.
func (g *Gateway) failQueue(queue []*waiter, cause error) {
	g.logger.Warn("Credential renewal failed", zap.Int("queued", len(queue)), zap.Error(cause))

	ctx := context.Background()
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error("Failed to clear credential", zap.Error(err))
	}
	g.notifier.Notify(CategorySessionExpired, CategorySessionExpired.DefaultMessage())
	g.notifier.SessionExpired()

	for _, w := range queue {
		w.outcome <- renewalOutcome{err: ErrSessionExpired}
	}
}

func (g *Gateway) startRenewal() <-chan renewalResult {
	done := make(chan renewalResult, 1)
	go func() {
		credential, err := g.renew()
		done <- renewalResult{credential: credential, err: err}
	}()
	return done
}

// renew exchanges the refresh cookie for a new credential. It runs detached
// from any caller's context since every queued request depends on it.
func (g *Gateway) renew() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.refreshTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.resolve(RefreshPath, nil), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create renewal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("renewal request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read renewal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("renewal rejected with status %d", resp.StatusCode)
	}

	_, _, _, data := parseEnvelope(body)
	var renewed struct {
		AccessToken string `json:"access_token"`
	}
	if err := (&Response{Data: data}).Decode(&renewed); err != nil {
		return "", err
	}
	if renewed.AccessToken == "" {
		return "", errors.New("renewal response carried no access token")
	}

	if err := g.store.Set(ctx, renewed.AccessToken); err != nil {
		return "", fmt.Errorf("store renewed credential: %w", err)
	}
	return renewed.AccessToken, nil
}
