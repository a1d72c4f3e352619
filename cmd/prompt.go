package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"solana-wallet-monitor/services/monitor"
)

var errAddressRequired = errors.New("wallet address is required")

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in *bufio.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out}
}

// address asks until a valid base58 public key is entered. An empty answer
// or end of input is an error.
func (p *prompter) address() (string, error) {
	for {
		line, err := p.ask("\nEnter wallet address to monitor: ")
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			return "", errAddressRequired
		}
		if monitor.IsAddress(line) {
			return line, nil
		}

		fmt.Fprintf(p.out, "%q is not a valid Solana address\n", line)
		if err != nil {
			return "", errAddressRequired
		}
	}
}

// max asks for the number of transactions. An empty answer means unlimited.
func (p *prompter) max() (int, error) {
	for {
		line, err := p.ask("Number of transactions (enter to watch unlimited): ")
		if line == "" {
			if err != nil && !errors.Is(err, io.EOF) {
				return 0, err
			}
			return 0, nil
		}

		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= 0 {
			return n, nil
		}

		fmt.Fprintf(p.out, "%q is not a non-negative number\n", line)
		if err != nil {
			return 0, nil
		}
	}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	return strings.TrimSpace(line), err
}
