package env

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
)

var _ = Describe("Config", func() {
	It("falls back to the defaults", func() {
		config, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{}))
		Expect(err).To(Succeed())

		Expect(config.Host).To(Equal("127.0.0.1"))
		Expect(config.Port).To(Equal(25575))
		Expect(config.Charset).To(Equal("UTF-8"))
		Expect(config.Timeout).To(BeZero())
		Expect(config.BridgePort).To(Equal(7362))
	})

	It("reads RCON_* variables", func() {
		config, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
			"RCON_HOST":     "mc.example.com",
			"RCON_PORT":     "25576",
			"RCON_PASSWORD": "hunter2",
			"RCON_TIMEOUT":  "3s",
			"RCON_DEBUG":    "true",
		}))
		Expect(err).To(Succeed())

		Expect(config.Host).To(Equal("mc.example.com"))
		Expect(config.Port).To(Equal(25576))
		Expect(config.Password).To(Equal("hunter2"))
		Expect(config.Timeout).To(Equal(3 * time.Second))
		Expect(config.Debug).To(BeTrue())
	})

	It("rejects values that do not parse", func() {
		_, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
			"RCON_PORT": "not a port",
		}))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LogLevel", func() {
	It("only logs warnings unless debugging", func() {
		Expect(LogLevel(false)).To(Equal(zap.WarnLevel))
		Expect(LogLevel(true)).To(Equal(zap.DebugLevel))
	})
})
