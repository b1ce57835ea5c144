package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PersonMatcher", func() {
	var matcher *PersonMatcher

	BeforeEach(func() {
		matcher = NewPersonMatcher()
	})

	It("matches with fixed confidence when any face is present", func() {
		signal := matcher.Match(1)
		Expect(signal.Matched).To(BeTrue())
		Expect(signal.Confidence).To(Equal(0.8))
	})

	It("treats several faces the same as one", func() {
		Expect(matcher.Match(7)).To(Equal(matcher.Match(1)))
	})

	It("does not match when no face is present", func() {
		signal := matcher.Match(0)
		Expect(signal.Matched).To(BeFalse())
		Expect(signal.Confidence).To(BeZero())
	})
})
