// Package speech drives an external transcription sidecar. The sidecar
// isolates vocals and transcribes them word by word; it reads JSON lines on
// stdin (init, enable, disable, audio, shutdown) and prints status, ready,
// word, transcript and error lines on stdout.
package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"
)

// ErrNoCommand is returned by Start when Options.Command is empty.
var ErrNoCommand = errors.New("no speech sidecar command")

// Options configures the sidecar and the audio sent to it.
type Options struct {
	// Command is the sidecar executable and its arguments.
	Command []string

	Model       string
	Language    string // empty lets the sidecar detect it
	DemucsModel string
	Segment     time.Duration
	Step        time.Duration

	// SampleRate is the rate of the s16le stereo frames handed to Write.
	SampleRate int
	// ChunkSamples is how many mono samples go into one audio message.
	ChunkSamples int
	// Enabled asks the sidecar to start transcribing as soon as it is ready.
	Enabled bool

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Model == "" {
		o.Model = "small"
	}
	if o.DemucsModel == "" {
		o.DemucsModel = "htdemucs"
	}
	if o.Segment <= 0 {
		o.Segment = 6 * time.Second
	}
	if o.Step <= 0 {
		o.Step = 1500 * time.Millisecond
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 48000
	}
	if o.ChunkSamples <= 0 {
		o.ChunkSamples = o.SampleRate / 2
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

const (
	messageBuffer = 64
	chunkBuffer   = 8
	stopGrace     = 2 * time.Second
)

// Client is a running sidecar. Write may be called from an audio callback;
// every other method from any goroutine.
type Client struct {
	opts Options
	log  *log.Logger

	wmu   sync.Mutex
	enc   *json.Encoder
	stdin io.Closer

	msgs       chan Message
	chunks     chan []float32
	writerDone chan struct{}

	mu      sync.Mutex
	pending []float32
	ready   bool
	enabled bool
	want    bool
	closed  bool

	wait   func() error
	cancel context.CancelFunc
}

// Start launches the sidecar and sends it the init command.
func Start(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if len(opts.Command) == 0 {
		return nil, ErrNoCommand
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Stderr = opts.Logger.Writer()
	cmd.WaitDelay = stopGrace
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting speech sidecar: %w", err)
	}

	c := newClient(stdout, stdin, opts)
	c.wait = cmd.Wait
	c.cancel = cancel
	if err := c.sendInit(); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing speech sidecar: %w", err)
	}
	return c, nil
}

// newClient talks the sidecar protocol over r and w without a process.
func newClient(r io.Reader, w io.WriteCloser, opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		opts:       opts,
		log:        opts.Logger,
		enc:        json.NewEncoder(w),
		stdin:      w,
		msgs:       make(chan Message, messageBuffer),
		chunks:     make(chan []float32, chunkBuffer),
		writerDone: make(chan struct{}),
		want:       opts.Enabled,
	}
	go c.readLoop(r)
	go c.writeLoop()
	return c
}

// Messages delivers every decoded sidecar line. It is closed when the
// sidecar's output ends. Lines arriving while the buffer is full are dropped.
func (c *Client) Messages() <-chan Message { return c.msgs }

// Enabled reports whether the sidecar confirmed it is transcribing.
func (c *Client) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled starts or stops transcription. Before the sidecar is ready the
// request is remembered and sent once it is.
func (c *Client) SetEnabled(on bool) error {
	c.mu.Lock()
	c.want = on
	ready, closed := c.ready, c.closed
	if !on {
		c.pending = c.pending[:0]
	}
	c.mu.Unlock()

	if closed || !ready {
		return nil
	}
	return c.sendToggle(on)
}

// Write takes whole s16le stereo frames, mixes them to mono and queues full
// chunks for the sidecar. It never blocks: chunks are dropped while the
// sidecar is disabled or behind.
func (c *Client) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.enabled {
		return len(p), nil
	}
	for i := 0; i+4 <= len(p); i += 4 {
		l := int16(binary.LittleEndian.Uint16(p[i:]))
		r := int16(binary.LittleEndian.Uint16(p[i+2:]))
		c.pending = append(c.pending, float32(int32(l)+int32(r))/65536)
		if len(c.pending) == c.opts.ChunkSamples {
			chunk := make([]float32, len(c.pending))
			copy(chunk, c.pending)
			c.pending = c.pending[:0]
			select {
			case c.chunks <- chunk:
			default:
			}
		}
	}
	return len(p), nil
}

// Close asks the sidecar to shut down and waits for it, killing it after a
// grace period. Further calls do nothing.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.chunks)
	c.mu.Unlock()

	<-c.writerDone
	if err := c.send(command{Type: "shutdown"}); err != nil {
		c.log.Printf("speech: sending shutdown: %v", err)
	}
	c.stdin.Close()

	var err error
	if c.wait != nil {
		waited := make(chan error, 1)
		go func() { waited <- c.wait() }()
		select {
		case err = <-waited:
		case <-time.After(stopGrace):
			c.cancel()
			err = <-waited
		}
	}
	if c.cancel != nil {
		c.cancel()
	}
	return err
}

func (c *Client) sendInit() error {
	cmd := initCommand{
		Type:           "init",
		Model:          c.opts.Model,
		DemucsModel:    c.opts.DemucsModel,
		SegmentSeconds: c.opts.Segment.Seconds(),
		StepSeconds:    c.opts.Step.Seconds(),
	}
	if c.opts.Language != "" {
		lang := c.opts.Language
		cmd.Language = &lang
	}
	return c.send(cmd)
}

func (c *Client) sendToggle(on bool) error {
	if on {
		return c.send(command{Type: "enable"})
	}
	return c.send(command{Type: "disable"})
}

func (c *Client) send(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.enc.Encode(v)
}

func (c *Client) writeLoop() {
	defer close(c.writerDone)
	for chunk := range c.chunks {
		err := c.send(audioCommand{
			Type:       "audio",
			Samples:    encodeSamples(chunk),
			SampleRate: c.opts.SampleRate,
		})
		if err != nil {
			c.log.Printf("speech: sending audio: %v", err)
		}
	}
}

func (c *Client) readLoop(r io.Reader) {
	defer close(c.msgs)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			c.log.Printf("speech: bad line %q: %v", line, err)
			continue
		}
		c.handle(m)
		select {
		case c.msgs <- m:
		default:
		}
	}
	if err := sc.Err(); err != nil {
		c.log.Printf("speech: reading sidecar output: %v", err)
	}
}

func (c *Client) handle(m Message) {
	switch m.Type {
	case TypeReady:
		c.mu.Lock()
		c.ready = true
		want, closed := c.want, c.closed
		c.mu.Unlock()
		if want && !closed {
			if err := c.sendToggle(true); err != nil {
				c.log.Printf("speech: enabling: %v", err)
			}
		}
	case TypeStatus:
		switch m.Status {
		case "enabled", "disabled":
			c.mu.Lock()
			c.enabled = m.Status == "enabled"
			if !c.enabled {
				c.pending = c.pending[:0]
			}
			c.mu.Unlock()
		}
	case TypeError:
		c.log.Printf("speech: sidecar error: %s", m.Message)
	}
}
