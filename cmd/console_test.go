package cmd

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/rcon/client"
	"github.com/luma/rcon/storage"
	"github.com/luma/rcon/transport"
)

type fakeCommander struct {
	replies  map[string]string
	failures map[string]error
	sent     []string
}

func (f *fakeCommander) Command(text string) (string, error) {
	f.sent = append(f.sent, text)

	if err, ok := f.failures[text]; ok {
		return "", err
	}

	return f.replies[text], nil
}

var _ = Describe("console loop", func() {
	var (
		session *fakeCommander
		out     *bytes.Buffer
		errOut  *bytes.Buffer
	)

	BeforeEach(func() {
		session = &fakeCommander{
			replies: map[string]string{
				"status": "hostname: mock",
				"quiet":  "",
			},
			failures: map[string]error{
				"boom": errors.New("rcon command: connection reset"),
			},
		}
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
	})

	run := func(input string, prompt bool) {
		Expect(runLoop(strings.NewReader(input), out, errOut, session, prompt)).To(Succeed())
	}

	It("skips blank lines and stops at exit", func() {
		run("\n\nstatus\n  exit  \nstatus\n", false)

		Expect(session.sent).To(Equal([]string{"status"}))
		Expect(out.String()).To(Equal("hostname: mock\n\nBye bye!\n"))
		Expect(errOut.String()).To(BeEmpty())
	})

	It("prints a blank line only after non-empty replies", func() {
		run("quiet\nstatus\n", false)

		Expect(session.sent).To(Equal([]string{"quiet", "status"}))
		Expect(out.String()).To(Equal("\nhostname: mock\n\nBye bye!\n"))
	})

	It("prints errors to errOut and keeps going", func() {
		run("boom\nstatus\n", false)

		Expect(session.sent).To(Equal([]string{"boom", "status"}))
		Expect(errOut.String()).To(ContainSubstring("rcon command: connection reset"))
		Expect(out.String()).NotTo(ContainSubstring("connection reset"))
		Expect(out.String()).To(Equal("hostname: mock\n\nBye bye!\n"))
	})

	It("sends whitespace-only lines to the session", func() {
		run("   \n", false)

		Expect(session.sent).To(Equal([]string{"   "}))
	})

	It("prints the prompt before every read when asked to", func() {
		run("status\n", true)

		Expect(out.String()).To(Equal("RCON> hostname: mock\n\nRCON> Bye bye!\n"))
	})

	It("talks to a mock server", func() {
		ctx := context.Background()

		tcp := transport.NewTCP(transport.Options{
			Host:     "127.0.0.1",
			Port:     0,
			Password: "secret",
			Store:    storage.NewInmemoryStore(),
		})
		Expect(tcp.Start(ctx)).To(Succeed())
		defer tcp.Close()

		port := tcp.Addr().(*net.TCPAddr).Port

		s, err := client.Dial(ctx, "127.0.0.1", port, "secret", client.Options{Timeout: 5 * time.Second})
		Expect(err).To(Succeed())
		defer s.Close()

		Expect(runLoop(strings.NewReader("echo hello\nsv_cheats 1\nsv_cheats\nnope!\nexit\n"), out, errOut, s, false)).To(Succeed())

		Expect(out.String()).To(Equal(
			"hello\n\n\n" +
				"\n" +
				"\"sv_cheats\" = \"1\"\n\n\n" +
				"Unknown command \"nope!\"\n\n\n" +
				"Bye bye!\n"))
		Expect(errOut.String()).To(BeEmpty())
	})
})
