package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"marketdesk/internal/models"

	"github.com/bytedance/sonic"
)

// StreamDepth yields depth updates over the push stream and reconnects
// forever with capped backoff. The channel closes only when ctx is done.
func (c *Client) StreamDepth(ctx context.Context, symbol string, levels int) <-chan models.DepthUpdate {
	ch := make(chan models.DepthUpdate)

	go func() {
		defer close(ch)

		stream := fmt.Sprintf("%s@depth%d@100ms", strings.ToLower(symbol), levels)
		url := c.cfg.WSURL + "/ws/" + stream
		backoff := backoffMin

		for {
			log.Printf("[WS] depth connect %s", stream)
			conn, _, err := c.wsDialer.DialContext(ctx, url, nil)
			if err != nil {
				log.Printf("[WS] depth dial error %s: %v", stream, err)
				if !c.sleepOrDone(ctx, backoff) {
					return
				}
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = backoffMin // reset after a successful connect

			// a blocked read does not observe ctx, so close the conn under it
			connDone := make(chan struct{})
			go func() {
				select {
				case <-ctx.Done():
					_ = conn.Close()
				case <-connDone:
				}
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					_ = conn.Close()
					close(connDone)
					if ctx.Err() != nil {
						return
					}
					log.Printf("[WS] depth read error %s: %v", stream, err)
					break
				}

				var frame struct {
					EventTime    int64      `json:"E"`
					UpdateID     int64      `json:"u"`
					LastUpdateID int64      `json:"lastUpdateId"`
					Bids         [][]string `json:"bids"`
					Asks         [][]string `json:"asks"`
				}
				if err := sonic.Unmarshal(msg, &frame); err != nil {
					continue // skip malformed frame
				}

				upd := models.DepthUpdate{
					Bids:        parseLevels(frame.Bids, levels),
					Asks:        parseLevels(frame.Asks, levels),
					EventTimeMS: frame.EventTime,
				}
				upd.LastUpdateID = frame.UpdateID
				if upd.LastUpdateID == 0 {
					upd.LastUpdateID = frame.LastUpdateID
				}

				select {
				case ch <- upd:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}

			if !c.sleepOrDone(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
		}
	}()

	return ch
}

func (c *Client) sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
