package sql_test

import (
	"context"
	"time"

	"turret-server/internal/infra/sql"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ORM", func() {
	var (
		orm sql.ORM
		ctx context.Context
	)

	type auditRow struct {
		ID       string `gorm:"primaryKey"`
		Resource string
		Command  string
	}

	ginkgo.BeforeEach(func() {
		var err error
		orm, err = sql.NewMemoryORM()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		ctx = context.Background()

		gomega.Expect(orm.AutoMigrate(&auditRow{})).To(gomega.Succeed())
	})

	ginkgo.Context("basic operations", func() {
		ginkgo.It("persists and finds rows", func() {
			row := auditRow{ID: "1", Resource: "axis:yaw", Command: "jog"}
			gomega.Expect(orm.WithContext(ctx).Create(&row).Error()).NotTo(gomega.HaveOccurred())

			var found []auditRow
			err := orm.WithContext(ctx).Where("resource = ?", "axis:yaw").Find(&found).Error()
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(found).To(gomega.HaveLen(1))
			gomega.Expect(found[0].Command).To(gomega.Equal("jog"))
		})

		ginkgo.It("maps gorm's not-found to ErrRecordNotFound", func() {
			var row auditRow
			err := orm.WithContext(ctx).First(&row, "id = ?", "missing").Error()
			gomega.Expect(err).To(gomega.MatchError(sql.ErrRecordNotFound))
		})
	})

	ginkgo.Context("WithTimeout", func() {
		ginkgo.It("completes operations within the timeout", func() {
			var count int64
			err := orm.WithTimeout(ctx, 2*time.Second).Model(&auditRow{}).Count(&count).Error()
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(int64(0)))
		})
	})
})
