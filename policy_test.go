package retrypolicy_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	retrypolicy "github.com/JohnPlummer/jp-go-retrypolicy"
)

var _ = Describe("Builder", func() {
	var noop retrypolicy.Operation[int]

	BeforeEach(func() {
		noop = func(ctx context.Context) (int, error) {
			return 0, nil
		}
	})

	Describe("Build", func() {
		It("produces a policy when operation and budget are set", func() {
			policy, err := retrypolicy.NewBuilder[int]().
				WithOperation(noop).
				AtMost(3).
				Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(policy.MaxAttempts()).To(Equal(3))
			Expect(policy.PerAttemptTimeout()).To(BeZero())
		})

		It("fails with a ConfigurationError naming a missing operation", func() {
			_, err := retrypolicy.NewBuilder[int]().
				AtMost(3).
				Build()
			Expect(err).To(HaveOccurred())
			Expect(retrypolicy.IsConfigurationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("operation"))
		})

		It("names every omission, not just the first", func() {
			_, err := retrypolicy.NewBuilder[int]().Build()
			Expect(err).To(HaveOccurred())

			var cfgErr *retrypolicy.ConfigurationError
			Expect(err).To(BeAssignableToTypeOf(cfgErr))
			cfgErr = err.(*retrypolicy.ConfigurationError)
			Expect(cfgErr.Fields).To(HaveLen(2))
			Expect(err.Error()).To(ContainSubstring("operation"))
			Expect(err.Error()).To(ContainSubstring("maxAttempts"))
		})

		It("rejects a zero attempt budget", func() {
			_, err := retrypolicy.NewBuilder[int]().
				WithOperation(noop).
				AtMost(0).
				Build()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("maxAttempts"))
		})

		It("rejects a negative attempt budget", func() {
			_, err := retrypolicy.NewBuilder[int]().
				WithOperation(noop).
				AtMost(-1).
				Build()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("maxAttempts"))
		})

		It("rejects a negative per-attempt timeout alongside other problems", func() {
			_, err := retrypolicy.NewBuilder[int]().
				WithPerAttemptTimeout(-time.Second).
				Build()
			Expect(err).To(HaveOccurred())

			cfgErr := err.(*retrypolicy.ConfigurationError)
			Expect(cfgErr.Fields).To(HaveLen(3))
			Expect(err.Error()).To(ContainSubstring("perAttemptTimeout"))
		})

		It("allows continuing with the same builder after fixing the problems", func() {
			builder := retrypolicy.NewBuilder[int]()
			_, err := builder.Build()
			Expect(err).To(HaveOccurred())

			policy, err := builder.WithOperation(noop).AtMost(2).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(policy.MaxAttempts()).To(Equal(2))
		})

		It("defaults the predicate to never bailing out", func() {
			policy, err := retrypolicy.NewBuilder[int]().
				WithOperation(noop).
				AtMost(3).
				Build()
			Expect(err).NotTo(HaveOccurred())

			result, err := retrypolicy.Execute(context.Background(), retrypolicy.NewEngine(), policy)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(retrypolicy.OutcomeExhausted))
			Expect(result.AttemptsMade).To(Equal(3))
		})

		It("defaults the backoff to zero delay", func() {
			policy, err := retrypolicy.NewBuilder[int]().
				WithOperation(noop).
				AtMost(5).
				Build()
			Expect(err).NotTo(HaveOccurred())

			start := time.Now()
			_, err = retrypolicy.Execute(context.Background(), retrypolicy.NewEngine(), policy)
			Expect(err).NotTo(HaveOccurred())
			Expect(time.Since(start)).To(BeNumerically("<", 100*time.Millisecond))
		})
	})

	Describe("policy reuse", func() {
		It("yields independent results across executions of one policy", func() {
			calls := 0
			policy, err := retrypolicy.NewBuilder[int]().
				WithOperation(func(ctx context.Context) (int, error) {
					calls++
					return calls, nil
				}).
				AtMost(2).
				Build()
			Expect(err).NotTo(HaveOccurred())

			engine := retrypolicy.NewEngine()
			first, err := retrypolicy.Execute(context.Background(), engine, policy)
			Expect(err).NotTo(HaveOccurred())
			second, err := retrypolicy.Execute(context.Background(), engine, policy)
			Expect(err).NotTo(HaveOccurred())

			Expect(first.AttemptsMade).To(Equal(2))
			Expect(second.AttemptsMade).To(Equal(2))
			Expect(first.FinalValue).To(Equal(2))
			Expect(second.FinalValue).To(Equal(4))
		})
	})
})

var _ = Describe("Bailout combinators", func() {
	It("Never never fires", func() {
		Expect(retrypolicy.Never[int]()(0)).To(BeFalse())
		Expect(retrypolicy.Never[int]()(42)).To(BeFalse())
	})

	It("AnyOf fires when any predicate fires", func() {
		p := retrypolicy.AnyOf(
			func(v int) bool { return v < 0 },
			func(v int) bool { return v > 10 },
		)
		Expect(p(-1)).To(BeTrue())
		Expect(p(11)).To(BeTrue())
		Expect(p(5)).To(BeFalse())
	})

	It("AllOf fires only when all predicates fire", func() {
		p := retrypolicy.AllOf(
			func(v int) bool { return v > 0 },
			func(v int) bool { return v%2 == 0 },
		)
		Expect(p(4)).To(BeTrue())
		Expect(p(3)).To(BeFalse())
		Expect(p(-2)).To(BeFalse())
	})
})
