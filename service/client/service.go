package client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/itiky/collaborate-canvas/config"
)

// Client is a headless editor: it joins a design session and performs random edits.
type Client struct {
	// Config
	designId   string        // design to edit
	opsSendDur time.Duration // edits period
	opsSendMax int           // max number of edits per period
	saveEvery  int           // save period in edit ticks
	// Components
	api      *DesignsClient
	channel  *Channel
	session  *Session
	comments *CommentComposer // nil if there is no comment author
	// State
	ticks int
	//
	stopCh chan interface{}
	doneCh chan interface{}
}

// String implements the stringer interface.
func (c *Client) String() string {
	_, clientId := c.session.Ids()
	return fmt.Sprintf("Client (%s)", clientId)
}

// Session returns the client session.
func (c *Client) Session() *Session {
	return c.session
}

// Start starts the Client worker.
func (c *Client) Start() {
	if c.stopCh != nil {
		return
	}
	c.stopCh = make(chan interface{})
	c.doneCh = make(chan interface{})

	monitor.Start()
	go c.worker()
}

// Stop stops the Client worker and waits for the session to be closed.
func (c *Client) Stop() {
	if c.stopCh == nil {
		return
	}

	close(c.stopCh)
	<-c.doneCh
	monitor.Stop()
}

// worker does the actual job.
func (c *Client) worker() {
	defer close(c.doneCh)

	log.Printf("Client: start")
	log.Printf("Client: designId:   %s", c.designId)
	log.Printf("Client: opsSendDur: %v", c.opsSendDur)
	log.Printf("Client: opsSendMax: %v", c.opsSendMax)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.session.Open(ctx, c.designId); err != nil {
		log.Fatalf("Client: session open: %v", err)
	}
	if err := c.initComments(ctx); err != nil {
		log.Printf("%s: comments disabled: %v", c.String(), err)
	}

	sendCh := time.Tick(c.opsSendDur)
	for {
		select {
		case <-sendCh:
			// Local edits
			c.sendUpdates()

			c.ticks++
			if c.saveEvery > 0 && c.ticks%c.saveEvery == 0 {
				if err := c.save(ctx); err != nil {
					log.Printf("%s: save: %v", c.String(), err)
				}
				c.comment()
			}
		case <-c.stopCh:
			// Stop the client
			log.Printf("%s: stop", c.String())
			if c.comments != nil {
				c.comments.Stop()
			}
			c.session.Close()
			c.channel.Disconnect()
			return
		}
	}
}

// NewClient creates a new Client object.
func NewClient(cfg config.ClientConfig, saveEvery int) (*Client, error) {
	if cfg.DesignId == "" {
		return nil, fmt.Errorf("%s: empty", "designId")
	}
	if cfg.OpsSendDur <= 0 {
		return nil, fmt.Errorf("%s: must be GT 0", "opsSendDur")
	}
	if cfg.OpsSendMax < 1 {
		return nil, fmt.Errorf("%s: must be GTE 1", "opsSendMax")
	}
	if saveEvery < 0 {
		return nil, fmt.Errorf("%s: must be GTE 0", "saveEvery")
	}

	api, err := NewDesignsClient(cfg.ServerUrl, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("NewDesignsClient: %w", err)
	}

	channel, err := NewChannel(cfg.Reconnect.Attempts, cfg.Reconnect.Delay, cfg.Reconnect.MaxDelay, 256)
	if err != nil {
		return nil, fmt.Errorf("NewChannel: %w", err)
	}

	session, err := NewSession(api, channel, cfg.ServerUrl, cfg.HistoryLimit, cfg.ConnectPolls, cfg.ConnectPollDur)
	if err != nil {
		return nil, fmt.Errorf("NewSession: %w", err)
	}

	return &Client{
		designId:   cfg.DesignId,
		opsSendDur: cfg.OpsSendDur,
		opsSendMax: cfg.OpsSendMax,
		saveEvery:  saveEvery,
		//
		api:     api,
		channel: channel,
		session: session,
	}, nil
}
