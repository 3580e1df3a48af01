package mocks

//go:generate mockery --name MetricsStore --srcpkg github.com/aevon-lab/asc-analytics/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
