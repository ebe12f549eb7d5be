package programmer

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/ihex"
)

// MockLogger records messages for assertions.
type MockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorMsgs = append(l.errorMsgs, fmt.Sprintf("%s %v", msg, kv))
}

func (l *MockLogger) hasError(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.errorMsgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

var (
	testProgramFuses = catalog.FuseSet{Prot: 0x3F, Low: 0x62, High: 0xDD, Ext: 0xF9, Reserved: 0x01}
	testNormalFuses  = catalog.FuseSet{Prot: 0x0F, Low: 0xFF, High: 0xDE, Ext: 0xF8, Reserved: 0x02}
)

// testData returns n bytes of a recognisable pattern.
func testData(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func testImage(t *testing.T, base uint16, n int) string {
	t.Helper()
	text, err := ihex.EncodeString(base, testData(n), ihex.DefaultRecordLength)
	if err != nil {
		t.Fatalf("EncodeString: %v", err)
	}
	return text
}

// testCatalog holds one chip at 0x9507 with a 300 byte image in 128 byte
// pages, and an alias for it at 0x9586.
func testCatalog(t *testing.T, image string) *catalog.Catalog {
	t.Helper()
	if image == "" {
		image = testImage(t, 0, 300)
	}
	return catalog.New(
		[]catalog.ChipProfile{{
			Name:         "atmega168",
			Signature:    0x9507,
			ProgramFuses: testProgramFuses,
			NormalFuses:  testNormalFuses,
			PageSize:     128,
			Image:        image,
		}},
		[]catalog.SignatureAlias{
			{Name: "atmega168pa", RealSignature: 0x9586, CanonicalSignature: 0x9507},
		},
	)
}
