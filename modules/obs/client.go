package obs

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
	"tv_channel/helpers/logs"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// obs-websocket v5 opcodes used by the client.
const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7

	rpcVersion = 1

	dialTimeout  = 5 * time.Second
	replyTimeout = 10 * time.Second
)

// Config holds the connection parameters for an OBS instance.
type Config struct {
	Host     string
	Port     int
	Password string
}

// Client is a session to a running OBS instance over its v5 websocket
// protocol. The connection is established lazily on first use; after a
// failure the broken connection is dropped and the next request reconnects.
type Client struct {
	cfg    Config
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
	logger *logrus.Entry
}

// NewClient returns an unconnected session. No network I/O happens until
// the first request.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		logger: logs.GetLogger().WithFields(logrus.Fields{
			"module": "obs",
			"host":   cfg.Host,
			"port":   cfg.Port,
		}),
	}
}

type envelope struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type helloData struct {
	ObsWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type requestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment"`
}

type responseData struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus requestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData"`
}

// connectLocked dials OBS and completes the Hello/Identify handshake.
// Caller must hold c.mu.
func (c *Client) connectLocked() error {
	url := fmt.Sprintf("ws://%s:%d", c.cfg.Host, c.cfg.Port)
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial OBS at %s: %w", url, err)
	}

	var hello envelope
	conn.SetReadDeadline(time.Now().Add(replyTimeout))
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return fmt.Errorf("failed to read Hello: %w", err)
	}
	if hello.Op != opHello {
		conn.Close()
		return fmt.Errorf("expected Hello opcode, got %d", hello.Op)
	}

	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil {
		conn.Close()
		return fmt.Errorf("failed to parse Hello: %w", err)
	}

	identify := map[string]interface{}{
		"rpcVersion": rpcVersion,
	}
	if hd.Authentication != nil {
		identify["authentication"] = authResponse(c.cfg.Password, hd.Authentication.Salt, hd.Authentication.Challenge)
	}

	if err := conn.WriteJSON(envelope{Op: opIdentify, D: mustMarshal(identify)}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to send Identify: %w", err)
	}

	var identified envelope
	conn.SetReadDeadline(time.Now().Add(replyTimeout))
	if err := conn.ReadJSON(&identified); err != nil {
		conn.Close()
		return fmt.Errorf("failed to read Identified: %w", err)
	}
	if identified.Op != opIdentified {
		conn.Close()
		return fmt.Errorf("authentication rejected (opcode %d)", identified.Op)
	}

	conn.SetReadDeadline(time.Time{})
	c.conn = conn
	c.logger.WithField("obs_version", hd.ObsWebSocketVersion).Info("Connected to OBS")
	return nil
}

// authResponse computes the v5 authentication string:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secretHash := sha256.Sum256([]byte(password + salt))
	secret := base64.StdEncoding.EncodeToString(secretHash[:])
	authHash := sha256.Sum256([]byte(secret + challenge))
	return base64.StdEncoding.EncodeToString(authHash[:])
}

// call issues one request and waits for its response, reconnecting first if
// the session is down. On transport errors the connection is dropped so the
// next call starts fresh.
func (c *Client) call(requestType string, requestData interface{}, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	}

	c.nextID++
	requestID := strconv.Itoa(c.nextID)

	req := map[string]interface{}{
		"requestType": requestType,
		"requestId":   requestID,
	}
	if requestData != nil {
		req["requestData"] = requestData
	}

	if err := c.conn.WriteJSON(envelope{Op: opRequest, D: mustMarshal(req)}); err != nil {
		c.dropLocked()
		return fmt.Errorf("failed to send %s: %w", requestType, err)
	}

	// Events and unrelated messages may arrive before our response.
	deadline := time.Now().Add(replyTimeout)
	for {
		c.conn.SetReadDeadline(deadline)
		var msg envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.dropLocked()
			return fmt.Errorf("failed to read %s response: %w", requestType, err)
		}
		if msg.Op != opRequestResponse {
			continue
		}
		var resp responseData
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			c.dropLocked()
			return fmt.Errorf("failed to parse %s response: %w", requestType, err)
		}
		if resp.RequestID != requestID {
			continue
		}
		if !resp.RequestStatus.Result {
			return fmt.Errorf("%s rejected by OBS (code %d): %s",
				requestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("failed to decode %s response data: %w", requestType, err)
			}
		}
		c.conn.SetReadDeadline(time.Time{})
		return nil
	}
}

// dropLocked closes and forgets the connection. Caller must hold c.mu.
func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.logger.Warn("OBS connection dropped, will reconnect on next use")
	}
}

// Close shuts the session down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
