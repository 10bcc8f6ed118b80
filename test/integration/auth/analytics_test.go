// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

//go:build integration

package auth_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/accelerateai/accelerate/internal/analytics"
)

var _ = Describe("Analytics persistence", func() {
	var (
		ctx    context.Context
		userID ulid.ULID
	)

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAll(ctx, env.pool)

		user, _, _, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
		Expect(err).NotTo(HaveOccurred())
		userID = user.ID
	})

	Describe("Workflows", func() {
		It("round-trips steps through the JSONB column", func() {
			workflow, err := analytics.NewWorkflow(userID, "Customer onboarding", "From signup to first value")
			Expect(err).NotTo(HaveOccurred())
			workflow.Steps = []analytics.WorkflowStep{
				{ID: ulid.Make(), Title: "Send welcome email"},
				{ID: ulid.Make(), Title: "Schedule kickoff", Description: "within 3 days"},
			}
			Expect(env.Workflows.Create(ctx, workflow)).To(Succeed())

			got, err := env.Workflows.GetByID(ctx, userID, workflow.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Steps).To(Equal(workflow.Steps))
			Expect(got.Status).To(Equal(analytics.WorkflowDraft))
		})

		It("scopes reads to the owner", func() {
			other, _, _, err := env.Service.Register(ctx, "grace@example.com", "secret-password", "Grace Hopper")
			Expect(err).NotTo(HaveOccurred())

			workflow, err := analytics.NewWorkflow(userID, "Private", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Workflows.Create(ctx, workflow)).To(Succeed())

			_, err = env.Workflows.GetByID(ctx, other.ID, workflow.ID)
			Expect(err).To(MatchError(analytics.ErrNotFound))
		})

		It("persists updates", func() {
			workflow, err := analytics.NewWorkflow(userID, "Intake", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Workflows.Create(ctx, workflow)).To(Succeed())

			workflow.Name = "Intake v2"
			workflow.Status = analytics.WorkflowActive
			workflow.UpdatedAt = time.Now()
			Expect(env.Workflows.Update(ctx, workflow)).To(Succeed())

			got, err := env.Workflows.GetByID(ctx, userID, workflow.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Intake v2"))
			Expect(got.Status).To(Equal(analytics.WorkflowActive))
			Expect(got.UpdatedAt).To(BeTemporally(">", got.CreatedAt))
		})
	})

	Describe("Reports", func() {
		It("round-trips insights and recommendations", func() {
			report, err := analytics.NewReport(userID, "Q3 performance", analytics.ReportPerformance)
			Expect(err).NotTo(HaveOccurred())
			report.Summary = "Revenue is up."
			report.Insights = []string{"Growth in Q3"}
			report.Recommendations = []string{"Invest in onboarding"}
			Expect(env.Reports.Create(ctx, report)).To(Succeed())

			got, err := env.Reports.GetByID(ctx, userID, report.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Summary).To(Equal("Revenue is up."))
			Expect(got.Insights).To(Equal([]string{"Growth in Q3"}))
			Expect(got.Recommendations).To(Equal([]string{"Invest in onboarding"}))
		})
	})

	Describe("Chat history", func() {
		It("replays the most recent messages oldest first", func() {
			for _, turn := range []struct {
				role    analytics.ChatRole
				content string
			}{
				{analytics.ChatRoleUser, "How is my business doing?"},
				{analytics.ChatRoleAssistant, "Revenue is trending up."},
				{analytics.ChatRoleUser, "What should I focus on?"},
			} {
				message, err := analytics.NewChatMessage(userID, turn.role, turn.content)
				Expect(err).NotTo(HaveOccurred())
				Expect(env.Chats.Create(ctx, message)).To(Succeed())
			}

			messages, err := env.Chats.ListByUser(ctx, userID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Content).To(Equal("Revenue is trending up."))
			Expect(messages[1].Content).To(Equal("What should I focus on?"))
		})
	})
})
