package connection

import (
	"bufio"
	"context"
	"io"
	"log"

	"github.com/tarm/serial"
)

type SerialConnection struct {
	// Wraps a device io.ReadWriter (normally a serial port).
	// Listen scans the reader with Tokenizer and pushes every
	// token to DataChan. A read error that happens before the
	// context is done is reported once on errChan.
	io.ReadWriter
	context.Context
	Tokenizer bufio.SplitFunc
	DataChan  chan []byte
	errChan   chan error
}

func (ss *SerialConnection) Listen() {
	// intended to be run in a separate goroutine
	defer func() {
		close(ss.errChan)
		close(ss.DataChan)
	}()
	scanner := bufio.NewScanner(ss)
	scanner.Split(ss.Tokenizer)
	for scanner.Scan() {
		// the scanner reuses its buffer
		token := append([]byte(nil), scanner.Bytes()...)
		select {
		case ss.DataChan <- token:
		case <-ss.Done():
			return
		}
	}
	select {
	case <-ss.Done():
		return
	default:
	}
	if err := scanner.Err(); err != nil {
		log.Println("Link was interrupted before context finished:", err)
		ss.errChan <- err
	}
}

func SerialProvider(baudrate int) ConnectionProvider {
	return func(name string) (io.ReadWriter, func(), error) {
		c := &serial.Config{Name: name, Baud: baudrate}
		stream, err := serial.OpenPort(c)
		if err != nil {
			return nil, nil, err
		}
		return stream, func() { stream.Close() }, nil
	}
}
