package service

import "github.com/noah-isme/turmas-api/internal/models"

// DefaultCatalog is the course catalog stored on first start.
func DefaultCatalog() []models.Course {
	return []models.Course{
		{
			ID:          "1",
			Title:       "Assistente Administrativo",
			Short:       "Gestão e rotinas administrativas",
			Description: "Aprenda os fundamentos da administração, organização de documentos, atendimento e suporte ao setor administrativo.",
			Duration:    "3 meses",
			Activities:  []string{"Gestão de documentos", "Atendimento ao público", "Rotinas administrativas", "Apoio na saúde mental", "Inclusão para o mundo do trabalho"},
		},
		{
			ID:          "2",
			Title:       "Programação de Dispositivos Móveis",
			Short:       "Desenvolvimento de apps com React Native",
			Description: "Aprenda a criar aplicativos móveis, usar Expo, gerenciar ativos e publicar aplicativos nas lojas.",
			Duration:    "6 meses",
			Activities:  []string{"Desenvolvimento de trilhas formativas", "Projetos práticos com React Native", "Publicação de apps", "Mentorias técnicas", "Colaboração em equipe"},
		},
		{
			ID:          "3",
			Title:       "Recursos Humanos e Liderança",
			Short:       "Gestão de pessoas e liderança",
			Description: "Desenvolva habilidades para atuar em RH, recrutamento, seleção, treinamento e liderança de equipes.",
			Duration:    "4 meses",
			Activities:  []string{"Recrutamento e seleção", "Treinamento de equipes", "Gestão de conflitos", "Mentorias de liderança", "Apoio psicossocial"},
		},
		{
			ID:          "4",
			Title:       "Design Gráfico e Criatividade",
			Short:       "Criação visual e comunicação",
			Description: "Aprenda princípios de design, ferramentas gráficas, criação de identidade visual e comunicação digital.",
			Duration:    "5 meses",
			Activities:  []string{"Oficinas de design", "Projetos de identidade visual", "Comunicação digital", "Colaboração criativa", "Portfólio profissional"},
		},
		{
			ID:          "5",
			Title:       "Empreendedorismo Social",
			Short:       "Inovação e impacto social",
			Description: "Desenvolva projetos de impacto social, aprenda sobre negócios sustentáveis e liderança comunitária.",
			Duration:    "4 meses",
			Activities:  []string{"Criação de projetos sociais", "Gestão sustentável", "Liderança comunitária", "Mentorias de impacto", "Parcerias e networking"},
		},
		{
			ID:          "6",
			Title:       "Tecnologia e Inovação",
			Short:       "Ferramentas digitais e automação",
			Description: "Explore ferramentas tecnológicas, automação de processos e inovação para o mercado de trabalho.",
			Duration:    "3 meses",
			Activities:  []string{"Automação de processos", "Uso de ferramentas digitais", "Projetos de inovação", "Oficinas práticas", "Desenvolvimento de carreira"},
		},
	}
}
