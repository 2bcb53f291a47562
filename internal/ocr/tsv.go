package ocr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// tsvColumns is the header Tesseract writes for its "tsv" output config.
var tsvColumns = []string{
	"level", "page_num", "block_num", "par_num", "line_num", "word_num",
	"left", "top", "width", "height", "conf", "text",
}

const (
	colLevel  = 0
	colLeft   = 6
	colTop    = 7
	colWidth  = 8
	colHeight = 9
	colConf   = 10
	colText   = 11
)

// ParseTSV reads Tesseract TSV output and returns one Detection per data row,
// in file order.
//
// Rows above word level end in an empty text column which Tesseract may omit
// entirely; both forms are accepted. Text is otherwise kept verbatim,
// including whitespace. A missing or unexpected header, a row with the wrong
// number of columns, or a non-numeric field is an error.
func ParseTSV(r io.Reader) ([]Detection, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	detections := make([]Detection, 0)
	sawHeader := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")

		if !sawHeader {
			if err := checkHeader(fields); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			sawHeader = true
			continue
		}

		d, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		detections = append(detections, d)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("empty tsv output")
	}

	return detections, nil
}

func checkHeader(fields []string) error {
	if len(fields) != len(tsvColumns) {
		return fmt.Errorf("tsv header has %d columns, want %d", len(fields), len(tsvColumns))
	}
	for i, want := range tsvColumns {
		if strings.TrimSpace(fields[i]) != want {
			return fmt.Errorf("tsv header column %d is %q, want %q", i, fields[i], want)
		}
	}
	return nil
}

func parseRow(fields []string) (Detection, error) {
	switch len(fields) {
	case len(tsvColumns):
	case len(tsvColumns) - 1:
		fields = append(fields, "")
	default:
		return Detection{}, fmt.Errorf("row has %d columns, want %d", len(fields), len(tsvColumns))
	}

	var nums [colHeight + 1]int
	for _, col := range []int{colLevel, colLeft, colTop, colWidth, colHeight} {
		v, err := strconv.Atoi(strings.TrimSpace(fields[col]))
		if err != nil {
			return Detection{}, fmt.Errorf("column %s: %w", tsvColumns[col], err)
		}
		nums[col] = v
	}

	conf, err := strconv.ParseFloat(strings.TrimSpace(fields[colConf]), 64)
	if err != nil {
		return Detection{}, fmt.Errorf("column conf: %w", err)
	}

	return Detection{
		Level: Level(nums[colLevel]),
		Box: BoundingBox{
			X:      nums[colLeft],
			Y:      nums[colTop],
			Width:  nums[colWidth],
			Height: nums[colHeight],
		},
		Confidence: conf,
		Text:       fields[colText],
	}, nil
}
