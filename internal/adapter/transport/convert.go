package transport

import (
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
)

var transactionTypes = map[core.TransactionType]skillswapv1.TransactionType{
	core.TransactionEarned:    skillswapv1.TransactionType_TRANSACTION_TYPE_EARNED,
	core.TransactionSpent:     skillswapv1.TransactionType_TRANSACTION_TYPE_SPENT,
	core.TransactionPurchased: skillswapv1.TransactionType_TRANSACTION_TYPE_PURCHASED,
}

var courseStatuses = map[core.CourseStatus]skillswapv1.CourseStatus{
	core.CourseStatusDraft:     skillswapv1.CourseStatus_COURSE_STATUS_DRAFT,
	core.CourseStatusPublished: skillswapv1.CourseStatus_COURSE_STATUS_PUBLISHED,
}

var paymentMethods = map[core.PaymentMethod]skillswapv1.PaymentMethod{
	core.PaymentCredits: skillswapv1.PaymentMethod_PAYMENT_METHOD_CREDITS,
	core.PaymentMoney:   skillswapv1.PaymentMethod_PAYMENT_METHOD_MONEY,
}

// courseStatusFromProto maps UNSPECIFIED to the empty status, which search
// treats as published.
func courseStatusFromProto(s skillswapv1.CourseStatus) core.CourseStatus {
	status, _ := lo.FindKey(courseStatuses, s)
	return status
}

// paymentMethodFromProto defaults to credits.
func paymentMethodFromProto(m skillswapv1.PaymentMethod) core.PaymentMethod {
	if method, ok := lo.FindKey(paymentMethods, m); ok {
		return method
	}
	return core.PaymentCredits
}

func timestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	return lo.ToPtr(int(*v))
}

func toAccount(u *core.User) *skillswapv1.Account {
	return &skillswapv1.Account{
		Id:            u.ID.String(),
		Name:          u.Name,
		CreditBalance: u.CreditBalance,
		SkillPoints:   u.SkillPoints,
		Badges:        u.Badges,
		CreatedAt:     timestamppb.New(u.CreatedAt),
	}
}

func toTransaction(tx core.CreditTransaction, _ int) *skillswapv1.Transaction {
	return &skillswapv1.Transaction{
		Id:          tx.ID.String(),
		UserId:      tx.UserID.String(),
		Amount:      tx.Amount,
		Type:        transactionTypes[tx.Type],
		Description: tx.Description,
		RelatedId:   tx.RelatedID,
		CreatedAt:   timestamppb.New(tx.CreatedAt),
	}
}

func toSkill(s *core.Skill) *skillswapv1.Skill {
	return &skillswapv1.Skill{Id: s.ID.String(), OwnerId: s.UserID.String(), Name: s.Name, Category: s.Category}
}

func toCourse(c core.Course, _ int) *skillswapv1.Course {
	return &skillswapv1.Course{
		Id:                   c.ID.String(),
		CreatorId:            c.CreatorID.String(),
		SkillId:              c.SkillID.String(),
		Category:             c.Category,
		Title:                c.Title,
		Description:          c.Description,
		PriceCredits:         c.PriceCredits,
		PriceMoney:           c.PriceMoney,
		Status:               courseStatuses[c.Status],
		TotalLessons:         int32(c.TotalLessons),
		TotalDurationMinutes: int32(c.TotalDuration),
		Rating:               c.Rating,
		TotalReviews:         int32(c.TotalReviews),
		CreatedAt:            timestamppb.New(c.CreatedAt),
		UpdatedAt:            timestamppb.New(c.UpdatedAt),
		PublishedAt:          timestamp(c.PublishedAt),
	}
}

func toLesson(l core.Lesson, _ int) *skillswapv1.Lesson {
	return &skillswapv1.Lesson{
		Id:              l.ID.String(),
		CourseId:        l.CourseID.String(),
		Title:           l.Title,
		Description:     l.Description,
		ContentType:     l.ContentType,
		ContentUrl:      l.ContentURL,
		DurationMinutes: int32(l.Duration),
		OrderIndex:      int32(l.OrderIndex),
	}
}

func toEnrollment(e core.Enrollment, _ int) *skillswapv1.Enrollment {
	return &skillswapv1.Enrollment{
		Id:            e.ID.String(),
		CourseId:      e.CourseID.String(),
		UserId:        e.UserID.String(),
		Progress:      int32(e.Progress),
		CompletedAt:   timestamp(e.CompletedAt),
		PaymentMethod: paymentMethods[e.PaymentMethod],
		PricePaid:     e.PricePaid,
		CreatedAt:     timestamppb.New(e.CreatedAt),
	}
}

func toLessonProgress(p core.LessonProgress, _ int) *skillswapv1.LessonProgress {
	return &skillswapv1.LessonProgress{
		LessonId:         p.LessonID.String(),
		Completed:        p.Completed,
		CompletedAt:      timestamp(p.CompletedAt),
		TimeSpentMinutes: int32(p.TimeSpent),
	}
}

func toCertificate(c core.Certificate, _ int) *skillswapv1.Certificate {
	return &skillswapv1.Certificate{
		Id:             c.ID.String(),
		UserId:         c.UserID.String(),
		CourseId:       c.CourseID.String(),
		EnrollmentId:   c.EnrollmentID.String(),
		CourseName:     c.CourseName,
		CompletedAt:    timestamppb.New(c.CompletedAt),
		CertificateUrl: c.CertificateURL,
	}
}

func toMonthly(m core.MonthlyEnrollments, _ int) *skillswapv1.MonthlyEnrollments {
	return &skillswapv1.MonthlyEnrollments{Month: m.Month, Count: int32(m.Count)}
}

func toLessonCompletion(l core.LessonCompletion, _ int) *skillswapv1.LessonCompletion {
	return &skillswapv1.LessonCompletion{
		LessonId:       l.LessonID.String(),
		Title:          l.Title,
		CompletedCount: int32(l.CompletedCount),
		CompletionRate: l.CompletionRate,
	}
}

func toCourseAnalytics(a core.CourseAnalytics, _ int) *skillswapv1.CourseAnalytics {
	return &skillswapv1.CourseAnalytics{
		CourseId:             a.CourseID.String(),
		Title:                a.Title,
		Status:               courseStatuses[a.Status],
		TotalEnrollments:     int32(a.TotalEnrollments),
		CompletedEnrollments: int32(a.CompletedEnrollments),
		CompletionRate:       a.CompletionRate,
		AverageProgress:      a.AverageProgress,
		TotalRevenue:         a.TotalRevenue,
		EnrollmentsByMonth:   lo.Map(a.EnrollmentsByMonth, toMonthly),
		LessonCompletion:     lo.Map(a.LessonCompletion, toLessonCompletion),
	}
}

func toCreatorAnalytics(a *core.CreatorAnalytics) *skillswapv1.CreatorAnalytics {
	return &skillswapv1.CreatorAnalytics{
		CreatorId:            a.CreatorID.String(),
		TotalCourses:         int32(a.TotalCourses),
		PublishedCourses:     int32(a.PublishedCourses),
		TotalEnrollments:     int32(a.TotalEnrollments),
		CompletedEnrollments: int32(a.CompletedEnrollments),
		CompletionRate:       a.CompletionRate,
		AverageProgress:      a.AverageProgress,
		TotalRevenue:         a.TotalRevenue,
		EnrollmentsByMonth:   lo.Map(a.EnrollmentsByMonth, toMonthly),
		Courses:              lo.Map(a.Courses, toCourseAnalytics),
	}
}
