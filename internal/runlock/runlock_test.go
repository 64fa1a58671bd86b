package runlock_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batch-files/internal/runlock"
)

func TestAcquire_SecondHolderIsRejected(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	out := filepath.Join(t.TempDir(), "converted")

	first, err := runlock.Acquire(out)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(first.Path()).To(Equal(out + ".lock"))

	_, err = runlock.Acquire(out)
	g.Expect(err).To(MatchError(runlock.ErrLocked))

	g.Expect(first.Release()).To(Succeed())

	_, err = os.Stat(first.Path())
	g.Expect(os.IsNotExist(err)).To(BeTrue())

	second, err := runlock.Acquire(out)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(second.Release()).To(Succeed())
}

func TestPathFor(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(runlock.PathFor("/data/out/")).To(Equal("/data/out.lock"))
}
