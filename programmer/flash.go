package programmer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moffa90/go-autoprog/ihex"
	"github.com/moffa90/go-autoprog/target"
)

// erasedByte fills gaps inside a page, matching erased flash.
const erasedByte = 0xFF

// Page is one flash page write.
type Page struct {
	// Address is the page base, a multiple of the page size
	Address uint32

	// Data runs from Address to the highest image byte inside the page
	Data []byte
}

// FlashStats summarizes a completed or interrupted image write.
type FlashStats struct {
	// Pages is the number of pages written
	Pages int

	// TotalPages is the number of pages in the image
	TotalPages int

	// Bytes is the number of bytes sent, gap padding included
	Bytes int

	// ImageBytes is the number of data bytes in the image
	ImageBytes int

	// Elapsed is the time spent parsing and writing
	Elapsed time.Duration
}

// Paginate groups the image bytes into pages of pageSize bytes in ascending
// address order. Addresses inside a page that the image does not cover are
// filled with 0xFF; a page ends at its highest covered byte.
func Paginate(img *ihex.Image, pageSize uint8) ([]Page, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if pageSize == 0 {
		return nil, fmt.Errorf("page size must be positive")
	}

	size := uint32(pageSize)
	data := img.Bytes()

	addrs := make([]uint32, 0, len(data))
	for addr := range data {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var pages []Page
	for _, addr := range addrs {
		base := addr - addr%size
		if len(pages) == 0 || pages[len(pages)-1].Address != base {
			pages = append(pages, Page{Address: base})
		}

		pg := &pages[len(pages)-1]
		for uint32(len(pg.Data)) < addr-base {
			pg.Data = append(pg.Data, erasedByte)
		}
		pg.Data = append(pg.Data, data[addr])
	}

	return pages, nil
}

// FlashProgrammer writes Intel HEX images to the target one page at a time.
// It never retries; a failed page ends the write.
type FlashProgrammer struct {
	device  target.Device
	timeout time.Duration
}

// NewFlashProgrammer creates a FlashProgrammer. timeout bounds each page.
func NewFlashProgrammer(device target.Device, timeout time.Duration) *FlashProgrammer {
	if device == nil {
		panic("device cannot be nil")
	}
	return &FlashProgrammer{device: device, timeout: timeout}
}

// WriteImage parses hexText and writes it in pageSize pages.
//
// The whole image is validated before the first page is sent, so a
// malformed record anywhere results in a FlashMalformedImage error and no
// writes at all. A page failure results in a FlashHardwareFault carrying the
// page address; the returned stats count the pages written before it.
func (f *FlashProgrammer) WriteImage(ctx context.Context, hexText string, pageSize uint8) (*FlashStats, error) {
	return f.writeImage(ctx, hexText, pageSize, nil)
}

// writeImage is WriteImage with onPage called after each page with the
// running totals.
func (f *FlashProgrammer) writeImage(ctx context.Context, hexText string, pageSize uint8, onPage func(FlashStats)) (*FlashStats, error) {
	start := time.Now()

	img, err := ihex.Parse(hexText)
	if err != nil {
		return nil, &FlashError{Kind: FlashMalformedImage, Err: err}
	}

	pages, err := Paginate(img, pageSize)
	if err != nil {
		return nil, &FlashError{Kind: FlashMalformedImage, Err: err}
	}

	stats := &FlashStats{
		TotalPages: len(pages),
		ImageBytes: img.Size(),
	}

	for _, pg := range pages {
		if err := f.writePage(ctx, pg); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, &FlashError{Kind: FlashHardwareFault, Address: pg.Address, Err: err}
		}

		stats.Pages++
		stats.Bytes += len(pg.Data)
		if onPage != nil {
			onPage(*stats)
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

func (f *FlashProgrammer) writePage(ctx context.Context, pg Page) error {
	ctx, cancel := withTimeout(ctx, f.timeout)
	defer cancel()

	return f.device.WriteFlashPage(ctx, pg.Address, pg.Data)
}
