package document

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

var (
	pdfinfoPagesRe = regexp.MustCompile(`^Pages:\s+(\d+)`)
	pdfinfoSizeRe  = regexp.MustCompile(`^Page\s+(\d+)\s+size:\s+([\d.]+)\s+x\s+([\d.]+)`)
	pdfinfoRotRe   = regexp.MustCompile(`^Page\s+(\d+)\s+rot:\s+(-?\d+)`)
)

func readPdfinfoGeometry(ctx context.Context, path string) ([]pageGeometry, error) {
	// -l 100000 makes pdfinfo print per-page size lines for every page.
	cmd := exec.CommandContext(ctx, "pdfinfo", "-f", "1", "-l", "100000", path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdfinfo: %w", err)
	}
	return parsePdfinfo(out)
}

// parsePdfinfo extracts page count and per-page sizes from pdfinfo output.
func parsePdfinfo(out []byte) ([]pageGeometry, error) {
	count := 0
	boxes := map[int]Box{}
	rotations := map[int]int{}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if m := pdfinfoPagesRe.FindStringSubmatch(line); m != nil {
			count, _ = strconv.Atoi(m[1])
			continue
		}
		if m := pdfinfoSizeRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			w, _ := strconv.ParseFloat(m[2], 64)
			h, _ := strconv.ParseFloat(m[3], 64)
			boxes[n] = Box{URX: w, URY: h}
			continue
		}
		if m := pdfinfoRotRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			r, _ := strconv.Atoi(m[2])
			rotations[n] = r
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pdfinfo output: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("pdfinfo reported no pages")
	}

	pages := make([]pageGeometry, count)
	for i := range pages {
		box, ok := boxes[i+1]
		if !ok {
			box = letterBox
		}
		// Sizes are printed unrotated; rot lines carry /Rotate.
		pages[i] = geometryFor(box, rotations[i+1])
	}
	return pages, nil
}
