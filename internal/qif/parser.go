package qif

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Transaction represents a single QIF transaction
type Transaction struct {
	Date     string
	Amount   string
	Payee    string
	Category string
	Number   string
	Memo     string
}

// ParseFile reads a QIF file and returns a slice of transactions
func ParseFile(filename string) ([]Transaction, error) {
	infile, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer infile.Close()

	return ParseReader(infile)
}

// ParseReader reads QIF records from r. Header lines such as "!Type:Bank" and
// unknown field codes are ignored; a record without a date is dropped.
func ParseReader(r io.Reader) ([]Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)

	var transactions []Transaction
	current := Transaction{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		value := line[1:]
		switch line[0] {
		case '^':
			if current.Date != "" {
				transactions = append(transactions, current)
			}
			current = Transaction{}
		case 'D':
			current.Date = value
		case 'T', 'U':
			if current.Amount == "" {
				current.Amount = value
			}
		case 'P':
			current.Payee = value
		case 'L':
			current.Category = value
		case 'N':
			current.Number = value
		case 'M':
			current.Memo = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read QIF: %w", err)
	}

	if current.Date != "" {
		transactions = append(transactions, current)
	}

	return transactions, nil
}
