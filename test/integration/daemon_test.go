//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/daemon"
	"github.com/firecorners/cornerd/internal/domain"
	"github.com/firecorners/cornerd/internal/infra"
	"github.com/firecorners/cornerd/internal/ipc"
	"github.com/firecorners/cornerd/test/fixtures"
)

func fastConfig() daemon.Config {
	cfg := daemon.DefaultConfig()
	cfg.ActiveInterval = 5 * time.Millisecond
	cfg.IdleInterval = 5 * time.Millisecond
	cfg.ConfigCheckInterval = 20 * time.Millisecond
	cfg.BackoffInterval = 50 * time.Millisecond
	cfg.StopGrace = time.Second
	return cfg
}

// writeConfig saves doc and pushes the mtime forward so the watcher notices.
func writeConfig(store *infra.FileConfigStore, doc *domain.Document, bump int) {
	Expect(store.Save(doc)).To(Succeed())
	stamp := time.Now().Add(time.Duration(bump) * time.Second)
	Expect(os.Chtimes(store.Path(), stamp, stamp)).To(Succeed())
}

var _ = Describe("Daemon", func() {
	var (
		tmpDir  string
		store   *infra.FileConfigStore
		pointer *fixtures.ScriptedPointer
		runner  *fixtures.RecordingRunner
		d       *daemon.Daemon
		server  *ipc.Server
		client  *ipc.Client
		done    chan error
		cancel  context.CancelFunc
	)

	start := func(doc *domain.Document) {
		if doc != nil {
			writeConfig(store, doc, 0)
		}
		d = daemon.New(fastConfig(), daemon.Deps{Store: store, Source: pointer, Runner: runner}, zap.NewNop())

		socket := filepath.Join(tmpDir, "fc.sock")
		server = ipc.NewServer(socket, d, zap.NewNop())
		Expect(server.Start()).To(Succeed())
		client = ipc.NewClient(socket)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- d.Run(ctx) }()
		Eventually(d.Ready()).Should(BeClosed())
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "firecorners-integration-*")
		Expect(err).NotTo(HaveOccurred())

		store = infra.NewFileConfigStore(filepath.Join(tmpDir, "config.json"), zap.NewNop())
		pointer = fixtures.NewScriptedPointer(1920, 1080)
		runner = fixtures.NewRecordingRunner()
	})

	AfterEach(func() {
		if d != nil {
			d.Stop()
			cancel()
			Eventually(done, 3*time.Second).Should(Receive())
			server.Stop()
			d = nil
		}
		os.RemoveAll(tmpDir)
	})

	Describe("startup", func() {
		It("creates a default config file when none exists", func() {
			start(nil)

			doc, err := store.Read()
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Settings).To(Equal(domain.DefaultSettings()))
			Expect(doc.ActionCount()).To(BeZero())
		})
	})

	Describe("corner triggering", func() {
		var doc *domain.Document

		BeforeEach(func() {
			doc = domain.DefaultDocument()
			doc.Settings.Dwell = 0.05
			doc.Settings.Cooldown = 30
			doc.SetActions(domain.CornerTopLeft, []domain.Action{
				{Type: domain.ActionURL, Value: "https://example.com"},
				{Type: domain.ActionShell, Value: "echo hi"},
			})
		})

		It("runs the corner's actions in order after the dwell", func() {
			pointer.MoveTo(2, 2)
			start(doc)

			Eventually(runner.Count, 2*time.Second).Should(Equal(2))
			calls := runner.Calls()
			Expect(calls[0].Value).To(Equal("https://example.com"))
			Expect(calls[1].Value).To(Equal("echo hi"))
		})

		It("fires once per cooldown while the pointer stays in the corner", func() {
			pointer.MoveTo(0, 0)
			start(doc)

			Eventually(runner.Count, 2*time.Second).Should(Equal(2))
			Consistently(runner.Count, 300*time.Millisecond).Should(Equal(2))
		})

		It("ignores a pass through the corner shorter than the dwell", func() {
			doc.Settings.Dwell = 1
			pointer.Replace(
				domain.Point{X: 960, Y: 540},
				domain.Point{X: 1, Y: 1},
				domain.Point{X: 1, Y: 1},
				domain.Point{X: 960, Y: 540},
			)
			start(doc)

			Consistently(runner.Count, 300*time.Millisecond).Should(BeZero())
		})

		It("keeps sampling after the pointer source recovers", func() {
			pointer.SetFailing(true)
			start(doc)
			Consistently(runner.Count, 100*time.Millisecond).Should(BeZero())

			pointer.MoveTo(0, 0)
			pointer.SetFailing(false)
			Eventually(runner.Count, 2*time.Second).Should(Equal(2))
		})
	})

	Describe("hot reload", func() {
		It("picks up edits to the config file", func() {
			start(domain.DefaultDocument())

			edited := domain.DefaultDocument()
			edited.Settings.Dwell = 0
			edited.SetActions(domain.CornerBottomRight, []domain.Action{{Type: domain.ActionApp, Value: "Calculator"}})
			writeConfig(store, edited, 5)

			Eventually(func() int {
				st, err := client.Status()
				if err != nil {
					return -1
				}
				return st.Actions
			}, 2*time.Second).Should(Equal(1))

			pointer.MoveTo(1919, 1079)
			Eventually(runner.Calls, 2*time.Second).Should(ConsistOf(
				domain.Action{Type: domain.ActionApp, Value: "Calculator"},
			))
		})

		It("keeps the previous config when the file becomes malformed", func() {
			doc := domain.DefaultDocument()
			doc.SetActions(domain.CornerTopRight, []domain.Action{{Type: domain.ActionShell, Value: "true"}})
			start(doc)

			Expect(os.WriteFile(store.Path(), []byte("{not json"), 0o644)).To(Succeed())
			stamp := time.Now().Add(10 * time.Second)
			Expect(os.Chtimes(store.Path(), stamp, stamp)).To(Succeed())

			Consistently(func() int { return d.Status().Actions }, 200*time.Millisecond).Should(Equal(1))

			data, err := os.ReadFile(store.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("{not json"))
		})
	})

	Describe("control socket", func() {
		BeforeEach(func() {
			doc := domain.DefaultDocument()
			doc.SetActions(domain.CornerBottomLeft, []domain.Action{{Type: domain.ActionScript, Value: "display notification \"hi\""}})
			start(doc)
		})

		It("reports status", func() {
			st, err := client.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Running).To(BeTrue())
			Expect(st.Paused).To(BeFalse())
			Expect(st.ConfigPath).To(Equal(store.Path()))
			Expect(st.Actions).To(Equal(1))
		})

		It("pauses and resumes", func() {
			Expect(client.Pause()).To(Succeed())
			st, err := client.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Paused).To(BeTrue())

			Expect(client.Resume()).To(Succeed())
			st, err = client.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Paused).To(BeFalse())
		})

		It("fires a corner on demand", func() {
			id, err := client.Fire(domain.CornerBottomLeft)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())
			Eventually(runner.Count, time.Second).Should(Equal(1))
		})

		It("stops the daemon", func() {
			Expect(client.Stop()).To(Succeed())
			Eventually(done, 3*time.Second).Should(Receive(BeNil()))
			done <- nil
		})
	})
})

var _ = Describe("Single instance", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "firecorners-instance-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("refuses a second daemon until the first releases", func() {
		lock := filepath.Join(tmpDir, "daemon.lock")
		record := filepath.Join(tmpDir, "instance.json")
		pm := infra.NewProcessManager()

		first := infra.NewFileInstanceRegistry(lock, record, pm)
		second := infra.NewFileInstanceRegistry(lock, record, pm)

		Expect(first.Acquire(domain.InstanceEntry{PID: os.Getpid(), SessionID: "a"})).To(Succeed())
		Expect(second.Acquire(domain.InstanceEntry{PID: os.Getpid(), SessionID: "b"})).To(MatchError(domain.ErrAlreadyRunning))
		Expect(first.IsAlive()).To(BeTrue())

		Expect(first.Release()).To(Succeed())
		Expect(second.Acquire(domain.InstanceEntry{PID: os.Getpid(), SessionID: "b"})).To(Succeed())
		entry, err := second.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(entry.SessionID).To(Equal("b"))
		Expect(second.Release()).To(Succeed())
	})
})
