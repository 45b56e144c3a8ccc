package group

import "github.com/futig/urlchat-backend/internal/entity"

// toGroupDTO converts URLGroup entity to GroupDTO
func toGroupDTO(g *entity.URLGroup) *entity.GroupDTO {
	urls := g.URLs
	if urls == nil {
		urls = []string{}
	}

	return &entity.GroupDTO{
		ID:     g.ID,
		Name:   g.Name,
		URLs:   urls,
		Active: g.Active,
	}
}

func toGroupDTOs(groups []*entity.URLGroup) []*entity.GroupDTO {
	dtos := make([]*entity.GroupDTO, 0, len(groups))
	for _, g := range groups {
		dtos = append(dtos, toGroupDTO(g))
	}
	return dtos
}
