package storage_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/rcon/storage"
)

var _ = Describe("storage / InmemoryStore", func() {
	var ctx = context.Background()

	Describe("Close()", func() {
		It("does not panic when closed twice", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(func() { store.Close() }).NotTo(Panic())
			Expect(func() { store.Close() }).NotTo(Panic())
		})

		It("closes update channels", func() {
			store := storage.NewInmemoryStore()
			updateChan := store.ListenToUpdates()

			Expect(store.Close()).To(Succeed())
			Eventually(updateChan).Should(BeClosed())
		})
	})

	It("an empty inmemory store equals {}", func() {
		store := storage.NewInmemoryStore()
		defer store.Close()

		value, err := store.Backup()
		Expect(err).To(Succeed())
		Expect(string(value)).To(Equal(`{}`))
	})

	Describe("Set() / Get()", func() {
		It("can read a variable that is written", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Set(ctx, "sv_cheats", "1")).To(Succeed())

			value, ok, err := store.Get(ctx, "sv_cheats")
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal("1"))

			backup, err := store.Backup()
			Expect(err).To(Succeed())
			Expect(string(backup)).To(Equal(`{"sv_cheats":"1"}`))
		})

		It("reports unknown variables", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			_, ok, err := store.Get(ctx, "mp_timelimit")
			Expect(err).To(Succeed())
			Expect(ok).To(BeFalse())
		})

		It("treats dots in names literally", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Set(ctx, "net.graph", "2")).To(Succeed())

			value, ok, err := store.Get(ctx, "net.graph")
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal("2"))

			backup, err := store.Backup()
			Expect(err).To(Succeed())
			Expect(string(backup)).To(Equal(`{"net.graph":"2"}`))
		})

		It("rejects empty names", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Set(ctx, "", "1")).NotTo(Succeed())
		})

		It("sends on the update channel when values are set", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			updateChan := store.ListenToUpdates()
			Expect(store.Set(ctx, "hostname", "test server")).To(Succeed())

			update, ok := <-updateChan
			Expect(ok).To(BeTrue())
			Expect(update).To(Equal(&storage.Update{
				Name:  "hostname",
				Value: "test server",
			}))
		})
	})

	Describe("List()", func() {
		It("returns variables sorted by name", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Restore([]byte(`{"sv_gravity":"800","hostname":"srv","mp_timelimit":"20"}`))).To(Succeed())

			vars, err := store.List(ctx)
			Expect(err).To(Succeed())
			Expect(vars).To(Equal([]storage.Var{
				{Name: "hostname", Value: "srv"},
				{Name: "mp_timelimit", Value: "20"},
				{Name: "sv_gravity", Value: "800"},
			}))
		})
	})

	Describe("Restore()", func() {
		It("rejects anything but a JSON object", func() {
			store := storage.NewInmemoryStore()
			defer store.Close()

			Expect(store.Restore([]byte(`[1,2]`))).NotTo(Succeed())
			Expect(store.Restore([]byte(`{nope`))).NotTo(Succeed())
		})
	})
})
