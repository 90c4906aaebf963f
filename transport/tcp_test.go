package transport_test

import (
	"context"
	"io"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/rcon/protocol"
	"github.com/luma/rcon/storage"
	"github.com/luma/rcon/transport"
)

var _ = Describe("transport", func() {
	Describe("TCP", func() {
		var (
			tcp  *transport.TCP
			conn net.Conn
		)

		BeforeEach(func() {
			tcp = makeTCPServer("secret", `{"hostname":"mock"}`)

			var err error
			conn, err = net.Dial("tcp", tcp.Addr().String())
			Expect(err).To(Succeed())
			Expect(conn.SetDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		})

		AfterEach(func() {
			conn.Close()
			Expect(tcp.Close()).To(Succeed())
		})

		It("echoes the request ID when the password is right", func() {
			resp := exchange(conn, 1234, protocol.ServerDataAuth, "secret")

			Expect(resp.RequestID()).To(BeEquivalentTo(1234))
			Expect(resp.Type()).To(Equal(protocol.ServerDataAuthResponse))
		})

		It("replies with -1 when the password is wrong", func() {
			resp := exchange(conn, 1234, protocol.ServerDataAuth, "nope")

			Expect(resp.RequestID()).To(Equal(protocol.AuthRejectedID))
		})

		It("refuses commands before auth", func() {
			resp := exchange(conn, 77, protocol.ServerDataExecCommand, "hostname")

			Expect(resp.RequestID()).To(Equal(protocol.AuthRejectedID))
		})

		It("executes commands after auth", func() {
			exchange(conn, 5, protocol.ServerDataAuth, "secret")

			resp := exchange(conn, 5, protocol.ServerDataExecCommand, "hostname")
			Expect(resp.RequestID()).To(BeEquivalentTo(5))
			Expect(resp.Type()).To(Equal(protocol.ServerDataResponseValue))
			Expect(string(resp.Payload())).To(Equal("\"hostname\" = \"mock\"\n"))

			resp = exchange(conn, 5, protocol.ServerDataExecCommand, "hostname renamed")
			Expect(string(resp.Payload())).To(BeEmpty())

			resp = exchange(conn, 5, protocol.ServerDataExecCommand, "hostname")
			Expect(string(resp.Payload())).To(Equal("\"hostname\" = \"renamed\"\n"))
		})

		It("answers unknown packet types", func() {
			resp := exchange(conn, 9, protocol.PacketType(42), "")

			Expect(resp.RequestID()).To(BeEquivalentTo(9))
			Expect(string(resp.Payload())).To(Equal("Unknown request 42\n"))
		})

		It("drops the connection on a malformed frame", func() {
			_, err := conn.Write([]byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00})
			Expect(err).To(Succeed())

			one := make([]byte, 1)
			_, err = conn.Read(one)
			Expect(err).To(MatchError(io.EOF))
		})
	})

	Describe("TCP.Close()", func() {
		It("closes connected clients", func() {
			tcp := makeTCPServer("", "")

			conn, err := net.Dial("tcp", tcp.Addr().String())
			Expect(err).To(Succeed())
			defer conn.Close()

			// Make sure the server has accepted the connection
			exchange(conn, 1, protocol.ServerDataAuth, "anything")

			Expect(tcp.Close()).To(Succeed())

			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			_, err = protocol.Decode(conn)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("TCP.Start()", func() {
		It("can race with Close", func() {
			tcp := transport.NewTCP(transport.Options{Host: "127.0.0.1"})

			started := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				started <- tcp.Start(context.Background())
			}()

			Expect(tcp.Close()).To(Succeed())
			Expect(<-started).To(Succeed())

			// Whatever Start bound after the first Close is released here
			Expect(tcp.Close()).To(Succeed())
		})
	})

	Describe("Options.Handler", func() {
		It("is used instead of the console", func() {
			tcp := transport.NewTCP(transport.Options{
				Host: "127.0.0.1",
				Handler: transport.HandlerFunc(func(ctx context.Context, command string) string {
					return "handled " + command
				}),
			})
			Expect(tcp.Start(context.Background())).To(Succeed())
			defer tcp.Close()

			conn, err := net.Dial("tcp", tcp.Addr().String())
			Expect(err).To(Succeed())
			defer conn.Close()

			exchange(conn, 1, protocol.ServerDataAuth, "")
			resp := exchange(conn, 1, protocol.ServerDataExecCommand, "status")
			Expect(string(resp.Payload())).To(Equal("handled status"))
		})
	})
})

func exchange(conn net.Conn, requestID int32, typ protocol.PacketType, payload string) *protocol.Packet {
	Expect(protocol.WritePacket(conn, requestID, typ, []byte(payload))).To(Succeed())

	resp, err := protocol.Decode(conn)
	Expect(err).To(Succeed())

	return resp
}

func makeTCPServer(password, restore string) *transport.TCP {
	store := storage.NewInmemoryStore()
	if restore != "" {
		Expect(store.Restore([]byte(restore))).To(Succeed())
	}

	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	tcp := transport.NewTCP(transport.Options{
		Host:         "127.0.0.1",
		Port:         0,
		Reuseport:    true,
		NumListeners: 1,
		Password:     password,
		Store:        store,
		Trace:        true,
		Log:          log,
	})

	Expect(tcp.Start(context.Background())).To(Succeed())

	return tcp
}
