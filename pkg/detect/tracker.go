package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

const (
	frameMarker = "Frame #:"
	boxMarker   = "{\"ID\":"
	fpsMarker   = "FPS: "
	endMarker   = "EOF"

	stderrTail = 4 * 1024
)

// ErrMissingFrameMarker is returned when a detection line shows up before any "Frame #:" line.
var ErrMissingFrameMarker = errors.New("detection before first frame marker")

// Command describes how to launch the external detector/tracker.
type Command struct {
	// Program is the interpreter or binary, e.g. python3.
	Program string

	// Script is the tracker entry point passed as first argument. May be empty
	// when Program is the tracker itself.
	Script     string
	Weights    string
	Video      string
	Confidence float64
}

// Args returns the argument list for the tracker process.
func (c Command) Args() []string {
	args := make([]string, 0, 7)
	if c.Script != "" {
		args = append(args, c.Script)
	}
	args = append(args, "--weights", c.Weights, "--video", c.Video)
	if c.Confidence > 0 {
		args = append(args, "--conf", strconv.FormatFloat(c.Confidence, 'f', -1, 64))
	}

	return args
}

// Run executes the tracker and streams its frames into framesC, in order, one
// frame per message. It is the only writer of framesC and closes it before
// returning.
func Run(ctx context.Context, c Command, framesC chan<- *Frame) error {
	cmd := exec.CommandContext(ctx, c.Program, c.Args()...)

	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		close(framesC)
		return fmt.Errorf("Run: could not get tracker's standard output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		close(framesC)
		return fmt.Errorf("Run: could not start tracker: %w", err)
	}

	parseErr := Parse(ctx, stdout, framesC)

	// drain whatever is left so the tracker can exit
	io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("Run: tracker exited: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("Run: tracker exited: %w", err)
	}

	return parseErr
}

// Parse reads the tracker's line protocol from r:
//
//	Frame #: 1
//	{"ID": 3, "Class": 2, "Name": "car", "X": 410.5, "Y": 220, "W": 80, "H": 44}
//	{"ID": null, "Class": 2, "Name": "car", ...}
//	FPS: 24.1
//	EOF
//
// Each frame is sent on framesC once the next one starts or the stream ends.
// Unparsable detection lines are logged and skipped. framesC is closed on return.
func Parse(ctx context.Context, r io.Reader, framesC chan<- *Frame) error {
	defer close(framesC)

	var current *Frame
	framesCounter := 0

	flush := func() error {
		if current == nil {
			return nil
		}
		select {
		case framesC <- current:
		case <-ctx.Done():
			return ctx.Err()
		}
		current = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, frameMarker):
			if err := flush(); err != nil {
				return err
			}
			framesCounter++
			current = newFrame(framesCounter)

		case line == endMarker:
			return flush()

		case strings.HasPrefix(line, fpsMarker):
			//log print from the tracker, not data

		case strings.HasPrefix(line, boxMarker):
			if current == nil {
				return ErrMissingFrameMarker
			}
			b := Box{}
			if err := json.Unmarshal([]byte(line), &b); err != nil {
				log.Printf("Parse: Error in frame %d, got '%v'", current.Number, err)
				continue
			}
			current.Boxes = append(current.Boxes, &b)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("Parse: reading tracker output: %w", err)
	}

	return flush()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}
