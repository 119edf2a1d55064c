// Package roster 负责在生成运行前筛选员工名单
package roster

import (
	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// Filter 按约束文档筛选可参与排班的员工
// 离职与已匿名化的员工一律排除；角色与部门允许清单非空时必须命中；
// 声明了技能要求时至少需满足其中一条。结果为空时调用方应直接返回零排班。
func Filter(employees []model.Employee, doc *model.ConstraintDocument) []model.Employee {
	roles := toSet(doc.Roles)
	departments := toSet(doc.Departments)

	var eligible []model.Employee
	for _, emp := range employees {
		if !emp.Schedulable() {
			continue
		}
		if len(roles) > 0 && !roles[emp.Role] {
			continue
		}
		if len(departments) > 0 && !departments[emp.Department] {
			continue
		}
		if len(doc.SkillRequirements) > 0 && !meetsAnyRequirement(&emp, doc.SkillRequirements) {
			continue
		}
		eligible = append(eligible, emp)
	}

	logger.Debug().
		Int("total", len(employees)).
		Int("eligible", len(eligible)).
		Msg("员工名单筛选完成")

	return eligible
}

// meetsAnyRequirement 员工是否满足至少一条技能要求
// 单条要求内的技能需全部具备；未列技能的要求对所有人成立
func meetsAnyRequirement(emp *model.Employee, reqs []model.SkillRequirement) bool {
	for _, req := range reqs {
		if emp.HasAllSkills(req.RequiredSkills) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
