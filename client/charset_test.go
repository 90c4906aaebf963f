package client_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/luma/rcon/client"
)

var _ = Describe("Charset", func() {
	DescribeTable("LookupCharset() names",
		func(name, canonical string) {
			charset, err := client.LookupCharset(name)
			Expect(err).To(Succeed())
			Expect(charset.Name()).To(Equal(canonical))
		},
		Entry("empty", "", "UTF-8"),
		Entry("utf-8", "utf-8", "UTF-8"),
		Entry("ISO-8859-1", "ISO-8859-1", "ISO-8859-1"),
		Entry("latin1 alias", "latin1", "ISO-8859-1"),
		Entry("registry name", "ISO_8859-1:1987", "ISO-8859-1"),
		Entry("no MIME name", "windows-1252", "windows-1252"),
	)

	It("writes '?' for characters the charset cannot encode", func() {
		charset, err := client.LookupCharset("ISO-8859-1")
		Expect(err).To(Succeed())

		b, err := charset.Encode("café€")
		Expect(err).To(Succeed())
		Expect(b).To(Equal([]byte{'c', 'a', 'f', 0xe9, '?'}))
	})

	It("encodes everything as UTF-8 by default", func() {
		b, err := client.UTF8.Encode("café€")
		Expect(err).To(Succeed())
		Expect(b).To(Equal([]byte("café€")))

		text, err := client.UTF8.Decode(b)
		Expect(err).To(Succeed())
		Expect(text).To(Equal("café€"))
	})
})
